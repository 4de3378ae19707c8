package seed

import (
	"context"
	"fmt"
	"log"

	"quill/internal/models"

	"gorm.io/gorm"
)

// Summary counts what a seeding run created.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d groups, %d users, %d posts, %d comments, %d follows",
		s.Groups, s.Users, s.Posts, s.Comments, s.Follows)
}

// Seeder populates the database with demo content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying factory.
func (s *Seeder) Factory() *Factory { return s.factory }

// Run seeds the built-in groups, then users with their posts, comments and
// follows.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log.Printf("🌱 Seeding %d users with %d posts each...", s.opts.Users, s.opts.PostsPerUser)

	if s.opts.Clean && !s.opts.DryRun {
		if err := Clear(ctx, s.db); err != nil {
			return sum, fmt.Errorf("clear data: %w", err)
		}
	}

	var groups []models.Group
	if s.opts.DryRun {
		for _, g := range BuiltInGroups {
			groups = append(groups, models.Group{ID: s.factory.assignID(), Title: g.Title, Slug: g.Slug})
		}
	} else {
		var err error
		if groups, err = Groups(ctx, s.db, BuiltInGroups); err != nil {
			return sum, err
		}
	}
	sum.Groups = len(groups)

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			posts = append(posts, s.factory.BuildPost(u, groups))
		}
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)
	log.Printf("✓ %d posts created", sum.Posts)

	if len(users) > 0 {
		comments := make([]*models.Comment, 0, len(posts)*s.opts.CommentsPerPost)
		for _, p := range posts {
			for i := 0; i < s.opts.CommentsPerPost; i++ {
				author := users[s.factory.faker.Number(0, len(users)-1)]
				comments = append(comments, s.factory.BuildComment(p, author))
			}
		}
		if err := s.factory.CreateCommentsBatch(comments); err != nil {
			return sum, fmt.Errorf("create comments: %w", err)
		}
		sum.Comments = len(comments)
	}

	var follows []*models.Follow
	for _, u := range users {
		follows = append(follows, s.factory.PickFollows(u, users, s.opts.FollowsPerUser)...)
	}
	if err := s.factory.CreateFollowsBatch(follows); err != nil {
		return sum, fmt.Errorf("create follows: %w", err)
	}
	sum.Follows = len(follows)

	log.Printf("🎉 Seeding completed: %s", sum)
	return sum, nil
}

// Clear deletes all content and accounts. Groups are kept.
func Clear(ctx context.Context, db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
