package service

import (
	"context"
	"time"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/metrics"
)

const (
	DefaultExpirySweepInterval   = 30 * time.Minute
	DefaultActivitySweepInterval = 5 * time.Minute
	DefaultShortInactivity       = 30 * time.Minute
	DefaultLongInactivity        = 2 * time.Hour
	DefaultMessageRetention      = 7 * 24 * time.Hour

	sweepTimeout = 30 * time.Second
)

type CleanupConfig struct {
	ExpirySweepInterval   time.Duration
	ActivitySweepInterval time.Duration
	ShortInactivity       time.Duration
	LongInactivity        time.Duration
	MessageRetention      time.Duration
}

func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		ExpirySweepInterval:   DefaultExpirySweepInterval,
		ActivitySweepInterval: DefaultActivitySweepInterval,
		ShortInactivity:       DefaultShortInactivity,
		LongInactivity:        DefaultLongInactivity,
		MessageRetention:      DefaultMessageRetention,
	}
}

// CleanupScheduler runs two independent periodic sweeps: one that expires
// rooms and reclaims long-inactive participants, and one that flips
// short-inactive participants to inactive. A failed sweep never stops the
// ticker or delays the next run.
type CleanupScheduler struct {
	rooms        *RoomService
	participants domain.ParticipantRepository
	messages     domain.MessageRepository
	logger       logging.Logger
	cfg          CleanupConfig

	stop chan struct{}
	done chan struct{}

	now func() time.Time
}

func NewCleanupScheduler(rooms *RoomService, participants domain.ParticipantRepository, messages domain.MessageRepository, logger logging.Logger, cfg CleanupConfig) *CleanupScheduler {
	if cfg.ExpirySweepInterval <= 0 {
		cfg.ExpirySweepInterval = DefaultExpirySweepInterval
	}
	if cfg.ActivitySweepInterval <= 0 {
		cfg.ActivitySweepInterval = DefaultActivitySweepInterval
	}
	if cfg.ShortInactivity <= 0 {
		cfg.ShortInactivity = DefaultShortInactivity
	}
	if cfg.LongInactivity <= 0 {
		cfg.LongInactivity = DefaultLongInactivity
	}
	if cfg.MessageRetention <= 0 {
		cfg.MessageRetention = DefaultMessageRetention
	}

	return &CleanupScheduler{
		rooms:        rooms,
		participants: participants,
		messages:     messages,
		logger:       logger,
		cfg:          cfg,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		now:          time.Now,
	}
}

// Start launches both sweep loops. Call Stop to shut them down.
func (c *CleanupScheduler) Start() {
	go c.loop()
}

func (c *CleanupScheduler) Stop() {
	close(c.stop)
	<-c.done
}

func (c *CleanupScheduler) loop() {
	defer close(c.done)

	expiry := time.NewTicker(c.cfg.ExpirySweepInterval)
	defer expiry.Stop()
	activity := time.NewTicker(c.cfg.ActivitySweepInterval)
	defer activity.Stop()

	for {
		select {
		case <-expiry.C:
			c.runGuarded("expiry", c.RunExpirySweep)
		case <-activity.C:
			c.runGuarded("activity", c.RunActivitySweep)
		case <-c.stop:
			return
		}
	}
}

// runGuarded isolates a single sweep: errors and panics are logged and the
// scheduler keeps ticking.
func (c *CleanupScheduler) runGuarded(name string, sweep func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(logging.Rooms, logging.Cleanup, "sweep panicked", map[logging.ExtraKey]any{
				"sweep": name,
				"panic": r,
			})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if err := sweep(ctx); err != nil {
		c.logger.Error(logging.Rooms, logging.Cleanup, "sweep failed", map[logging.ExtraKey]any{
			"sweep":        name,
			"errorMessage": err.Error(),
		})
	}
}

// RunExpirySweep deactivates expired rooms, permanently removes participants
// whose last-seen time crossed the long-inactivity threshold, and purges
// messages past the retention window. Creators are never removed, so a room's
// bookkeeping survives its creator going silent.
func (c *CleanupScheduler) RunExpirySweep(ctx context.Context) error {
	if _, err := c.rooms.DeactivateExpiredRooms(ctx); err != nil {
		return err
	}

	// Mongo also enforces this through a TTL index; the in-memory backend
	// relies on the sweep alone.
	if err := c.messages.DeleteOlderThan(ctx, c.now().Add(-c.cfg.MessageRetention)); err != nil {
		c.logger.Warn(logging.Rooms, logging.Cleanup, "failed to purge old messages", map[logging.ExtraKey]any{
			"errorMessage": err.Error(),
		})
	}

	threshold := c.now().Add(-c.cfg.LongInactivity)
	stale, err := c.participants.FindSeenBefore(ctx, threshold)
	if err != nil {
		return err
	}

	removed := 0
	for i := range stale {
		p := &stale[i]
		if p.IsActive || p.Role == domain.RoleCreator {
			continue
		}
		if err := c.participants.Delete(ctx, p.ID); err != nil {
			c.logger.Warn(logging.Rooms, logging.Cleanup, "failed to remove stale participant", map[logging.ExtraKey]any{
				"room_code":    p.RoomCode,
				"user_id":      p.UserID,
				"errorMessage": err.Error(),
			})
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.ParticipantsReclaimed.Add(float64(removed))
		c.logger.Info(logging.Rooms, logging.Cleanup, "removed stale participants", map[logging.ExtraKey]any{
			"count": removed,
		})
	}
	return nil
}

// RunActivitySweep flips participants unseen past the short-inactivity
// threshold to inactive. They become eligible for removal only after
// additionally crossing the long threshold.
func (c *CleanupScheduler) RunActivitySweep(ctx context.Context) error {
	threshold := c.now().Add(-c.cfg.ShortInactivity)

	idle, err := c.participants.FindSeenBefore(ctx, threshold)
	if err != nil {
		return err
	}

	flipped := 0
	for i := range idle {
		p := &idle[i]
		if !p.IsActive {
			continue
		}
		if err := c.participants.Deactivate(ctx, p.UserID, p.RoomCode); err != nil {
			c.logger.Warn(logging.Rooms, logging.Cleanup, "failed to mark participant inactive", map[logging.ExtraKey]any{
				"room_code":    p.RoomCode,
				"user_id":      p.UserID,
				"errorMessage": err.Error(),
			})
			continue
		}
		flipped++
	}

	if flipped > 0 {
		c.logger.Info(logging.Rooms, logging.Cleanup, "marked idle participants inactive", map[logging.ExtraKey]any{
			"count": flipped,
		})
	}
	return nil
}

// RunNow executes both sweeps synchronously, for the admin trigger and tests.
func (c *CleanupScheduler) RunNow(ctx context.Context) error {
	if err := c.RunActivitySweep(ctx); err != nil {
		return err
	}
	return c.RunExpirySweep(ctx)
}
