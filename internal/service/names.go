package service

import (
	"fmt"
	"hash/fnv"
)

var (
	nameAdjectives = []string{"Stylish", "Trendy", "Chic", "Elegant", "Dapper", "Sophisticated"}
	nameNouns      = []string{"Fashionista", "StyleIcon", "TrendSetter", "Designer", "Curator", "Maven"}
)

// GenerateDisplayName derives a stable pseudonym from an opaque user id, used
// when a joiner supplies no display name. Same id, same name.
func GenerateDisplayName(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	hash := int(h.Sum32() & 0x7fffffff)

	adjective := nameAdjectives[hash%len(nameAdjectives)]
	noun := nameNouns[(hash/len(nameAdjectives))%len(nameNouns)]

	return fmt.Sprintf("%s%s%d", adjective, noun, hash%1000)
}
