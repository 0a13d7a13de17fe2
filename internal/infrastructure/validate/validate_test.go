package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Compose_StopsAtFirstFailure(t *testing.T) {
	req := require.New(t)

	v := Compose(Required(), MinLength(3))

	req.Error(v("   "))
	req.Error(v("ab"))
	req.NoError(v("abc"))
}

func Test_Field_PrefixesName(t *testing.T) {
	req := require.New(t)

	err := Field("name", "", Required())
	req.Error(err)
	req.Contains(err.Error(), "name")
}

func Test_Length(t *testing.T) {
	req := require.New(t)

	req.NoError(Length(8)("ABCD1234"))
	req.Error(Length(8)("ABC"))
	req.Error(Length(8)("ABCD12345"))
}

func Test_Alphanumeric(t *testing.T) {
	req := require.New(t)

	req.NoError(Alphanumeric()("ABCD1234"))
	req.Error(Alphanumeric()("ABCD-123"))
	req.Error(Alphanumeric()("ABCD 123"))
}

func Test_IntBetween(t *testing.T) {
	req := require.New(t)

	req.NoError(IntBetween("maxParticipants", 20, 2, 50))
	req.Error(IntBetween("maxParticipants", 1, 2, 50))
	req.Error(IntBetween("maxParticipants", 51, 2, 50))
}

func Test_Join(t *testing.T) {
	req := require.New(t)

	req.NoError(Join(nil, nil))

	err := Join(
		Field("name", "", Required()),
		nil,
		Field("code", "ABC", Length(8)),
	)
	req.Error(err)
	req.Contains(err.Error(), "name")
	req.Contains(err.Error(), "code")
	req.Contains(err.Error(), ";")
}
