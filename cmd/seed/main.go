package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"fanclub/pkg/cache"
	"fanclub/pkg/config"
	"fanclub/pkg/database"
	"fanclub/pkg/domain"
	"fanclub/pkg/logger"
	"fanclub/pkg/s3"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const seedPassword = "password123"

type user struct {
	ID           string `gorm:"type:uuid;primary_key"`
	Email        string
	Username     string
	PasswordHash string `gorm:"column:password_hash"`
	Bio          string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (user) TableName() string { return "users" }

type tier struct {
	ID            string `gorm:"type:uuid;primary_key"`
	CreatorID     string
	Name          string
	Level         int
	Price         int
	BillingPeriod string
	Benefits      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (tier) TableName() string { return "membership_tiers" }

type posting struct {
	ID        string `gorm:"type:uuid;primary_key"`
	CreatorID string
	Title     string
	Text      string
	ImageURLs datatypes.JSONSlice[string] `gorm:"column:image_urls;type:jsonb"`
	VideoURLs datatypes.JSONSlice[string] `gorm:"column:video_urls;type:jsonb"`
	MinLevel  *int
	Price     *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (posting) TableName() string { return "postings" }

type subscription struct {
	ID        string `gorm:"type:uuid;primary_key"`
	ViewerID  string
	CreatorID string
	TierID    string
	Level     int
	CreatedAt time.Time
}

func (subscription) TableName() string { return "subscriptions" }

type follow struct {
	ID         string `gorm:"type:uuid;primary_key"`
	FollowerID string
	CreatorID  string
	CreatedAt  time.Time
}

func (follow) TableName() string { return "follows" }

type seedUser struct {
	email    string
	username string
	role     string
	bio      string
}

type seedPosting struct {
	title string
	text  string
	gate  domain.Gate
}

var (
	creators = []seedUser{
		{"mina@test.com", "mina_draws", "creator", "Sketchbooks and process videos"},
		{"jun@test.com", "jun_sounds", "creator", "Field recordings"},
	}
	viewers = []seedUser{
		{"alice@test.com", "alice", "viewer", ""},
		{"bob@test.com", "bob", "viewer", ""},
	}
	tiers = []struct {
		name     string
		level    int
		price    int
		benefits []string
	}{
		{"Supporter", 1, 300, []string{"Members-only posts"}},
		{"Fan", 2, 700, []string{"Members-only posts", "Monthly wallpaper"}},
		{"Superfan", 3, 1500, []string{"Members-only posts", "Monthly wallpaper", "Process videos"}},
	}
	postings = []seedPosting{
		{"Hello and welcome", "What this page is about.", domain.Public()},
		{"Work in progress", "Early sketches for members.", domain.Membership(1)},
		{"Wallpaper pack", "This month's wallpapers.", domain.Membership(2)},
		{"Full process video", "Two hours, start to finish.", domain.Membership(3)},
		{"Print-ready file", "High resolution file, buy once.", domain.Purchase(1200)},
		{"Bonus chapter", "For Fans, or buy it on its own.", domain.MembershipOrPurchase(2, 500)},
	}
)

func main() {
	withImages := flag.Bool("images", false, "attach a random image from cataas.com to public postings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.NewWithLevel(cfg.LogLevel, cfg.LogFormat)
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	var storage *s3.Client
	if *withImages {
		storage, err = s3.NewClient(cfg)
		if err != nil {
			log.Error("Failed to create S3 client: %v", err)
			panic(err)
		}
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Redis unavailable, cached entitlements will expire on their own: %v", err)
		redisClient = nil
	}

	s := &seeder{db: db, storage: storage, redis: redisClient, log: log, httpClient: &http.Client{Timeout: 30 * time.Second}}
	if err := s.run(context.Background()); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

type seeder struct {
	db         *gorm.DB
	storage    *s3.Client
	redis      *redis.Client
	log        *logger.Logger
	httpClient *http.Client
}

func (s *seeder) run(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	creatorIDs := make([]string, 0, len(creators))
	for _, u := range creators {
		id, err := s.ensureUser(ctx, u, string(hash))
		if err != nil {
			return err
		}
		creatorIDs = append(creatorIDs, id)
	}
	viewerIDs := make([]string, 0, len(viewers))
	for _, u := range viewers {
		id, err := s.ensureUser(ctx, u, string(hash))
		if err != nil {
			return err
		}
		viewerIDs = append(viewerIDs, id)
	}

	tierIDs := make(map[string]map[int]string, len(creatorIDs))
	for _, creatorID := range creatorIDs {
		ids, err := s.ensureTiers(ctx, creatorID)
		if err != nil {
			return err
		}
		tierIDs[creatorID] = ids
		if err := s.ensurePostings(ctx, creatorID); err != nil {
			return err
		}
	}

	// alice is a Fan of the first creator, bob follows everyone
	first := creatorIDs[0]
	if err := s.ensureSubscription(ctx, viewerIDs[0], first, tierIDs[first][2], 2); err != nil {
		return err
	}
	for _, creatorID := range creatorIDs {
		if err := s.ensureFollow(ctx, viewerIDs[1], creatorID); err != nil {
			return err
		}
	}

	if s.redis != nil {
		for _, id := range viewerIDs {
			if err := s.redis.Del(ctx, "entitlement:"+id).Err(); err != nil {
				s.log.Warn("Failed to invalidate entitlements of %s: %v", id, err)
			}
		}
	}
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser, hash string) (string, error) {
	var existing user
	err := s.db.WithContext(ctx).Where("email = ? OR username = ?", u.email, u.username).First(&existing).Error
	if err == nil {
		s.log.Info("User %s already exists, skipping", u.username)
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to look up user %s: %w", u.username, err)
	}

	row := user{ID: uuid.New().String(), Email: u.email, Username: u.username, PasswordHash: hash, Bio: u.bio, Role: u.role}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to create user %s: %w", u.username, err)
	}
	s.log.Info("Created %s: %s (%s)", u.role, u.username, u.email)
	return row.ID, nil
}

func (s *seeder) ensureTiers(ctx context.Context, creatorID string) (map[int]string, error) {
	ids := make(map[int]string, len(tiers))
	for _, t := range tiers {
		var existing tier
		err := s.db.WithContext(ctx).Where("creator_id = ? AND level = ?", creatorID, t.level).First(&existing).Error
		if err == nil {
			ids[t.level] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up tier: %w", err)
		}
		row := tier{
			ID:            uuid.New().String(),
			CreatorID:     creatorID,
			Name:          t.name,
			Level:         t.level,
			Price:         t.price,
			BillingPeriod: string(domain.BillingMonthly),
			Benefits:      datatypes.JSONSlice[string](t.benefits),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, fmt.Errorf("failed to create tier %s: %w", t.name, err)
		}
		ids[t.level] = row.ID
	}
	s.log.Info("Tiers ready for creator %s", creatorID)
	return ids, nil
}

func (s *seeder) ensurePostings(ctx context.Context, creatorID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&posting{}).Where("creator_id = ?", creatorID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count postings: %w", err)
	}
	if count > 0 {
		s.log.Info("Creator %s already has postings, skipping", creatorID)
		return nil
	}

	base := time.Now().Add(-time.Duration(len(postings)) * time.Hour)
	for i, p := range postings {
		minLevel, price := p.gate.Columns()
		row := posting{
			ID:        uuid.New().String(),
			CreatorID: creatorID,
			Title:     p.title,
			Text:      p.text,
			ImageURLs: datatypes.JSONSlice[string]{},
			VideoURLs: datatypes.JSONSlice[string]{},
			MinLevel:  minLevel,
			Price:     price,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if s.storage != nil && p.gate.IsPublic() {
			url, err := s.uploadCatImage(ctx, creatorID, i)
			if err != nil {
				s.log.Warn("Skipping image for %q: %v", p.title, err)
			} else {
				row.ImageURLs = append(row.ImageURLs, url)
			}
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create posting %q: %w", p.title, err)
		}
	}
	s.log.Info("Created %d postings for creator %s", len(postings), creatorID)
	return nil
}

func (s *seeder) ensureSubscription(ctx context.Context, viewerID, creatorID, tierID string, level int) error {
	row := subscription{ID: uuid.New().String(), ViewerID: viewerID, CreatorID: creatorID, TierID: tierID, Level: level}
	err := s.db.WithContext(ctx).Where("viewer_id = ? AND tier_id = ?", viewerID, tierID).FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (s *seeder) ensureFollow(ctx context.Context, followerID, creatorID string) error {
	row := follow{ID: uuid.New().String(), FollowerID: followerID, CreatorID: creatorID}
	err := s.db.WithContext(ctx).Where("follower_id = ? AND creator_id = ?", followerID, creatorID).FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

func (s *seeder) uploadCatImage(ctx context.Context, creatorID string, index int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://cataas.com/cat", nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cataas returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("received empty image")
	}

	key := fmt.Sprintf("postings/%s/seed_%d.jpg", creatorID, index)
	return s.storage.Upload(ctx, key, bytes.NewReader(data), "image/jpeg")
}
