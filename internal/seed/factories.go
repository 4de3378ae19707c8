// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options controls the size and shape of the generated data.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	// MaxDays spreads publication dates over the last MaxDays days.
	MaxDays int
	// RandSeed makes the generated content reproducible. Zero uses the clock.
	RandSeed   int64
	SkipBcrypt bool
	DryRun     bool
	Clean      bool
	BatchSize  int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	now    time.Time
	hashed string
	seen   map[string]struct{}
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		now:    time.Now(),
		seen:   map[string]struct{}{},
		nextID: 1000,
	}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.hashed == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return DefaultPassword
		}
		f.hashed = string(hashed)
	}
	return f.hashed
}

// username returns a fresh, valid username.
func (f *Factory) username() string {
	for {
		name := strings.ToLower(f.faker.FirstName()) + fmt.Sprint(f.faker.Number(10, 9999))
		if _, taken := f.seen[name]; !taken {
			f.seen[name] = struct{}{}
			return name
		}
	}
}

// pubDate is a random moment within the last MaxDays days.
func (f *Factory) pubDate() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Username:  f.username(),
		Email:     f.faker.Email(),
		FirstName: first,
		LastName:  last,
		Password:  f.password(),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.assignID()
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author without persisting it. Roughly two
// thirds of the posts land in one of groups.
func (f *Factory) BuildPost(author *models.User, groups []models.Group) *models.Post {
	post := &models.Post{
		Text:     f.faker.Paragraph(1, f.faker.Number(1, 4), 12, "\n"),
		AuthorID: author.ID,
		PubDate:  f.pubDate(),
	}
	if len(groups) > 0 && f.faker.Number(0, 2) > 0 {
		group := groups[f.faker.Number(0, len(groups)-1)]
		post.GroupID = &group.ID
	}
	return post
}

// CreatePostsBatch persists multiple posts in batches.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.assignID()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Omit("Author", "Group").CreateInBatches(posts, f.opts.BatchSize).Error
}

// BuildComment constructs a comment on post by author, dated after the post.
func (f *Factory) BuildComment(post *models.Post, author *models.User) *models.Comment {
	delay := time.Duration(f.faker.Number(1, 72*60)) * time.Minute
	pub := post.PubDate.Add(delay)
	if pub.After(f.now) {
		pub = f.now
	}
	return &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     f.faker.Sentence(f.faker.Number(3, 15)),
		PubDate:  pub,
	}
}

// CreateCommentsBatch persists multiple comments in batches.
func (f *Factory) CreateCommentsBatch(comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, c := range comments {
			c.ID = f.assignID()
		}
		return nil
	}
	return f.db.Omit("Author", "Post").CreateInBatches(comments, f.opts.BatchSize).Error
}

// PickFollows chooses up to n distinct authors for user, never user itself.
func (f *Factory) PickFollows(user *models.User, users []*models.User, n int) []*models.Follow {
	if n > len(users)-1 {
		n = len(users) - 1
	}
	if n <= 0 {
		return nil
	}
	candidates := make([]*models.User, 0, len(users)-1)
	for _, u := range users {
		if u.ID != user.ID {
			candidates = append(candidates, u)
		}
	}
	f.faker.ShuffleAnySlice(candidates)

	follows := make([]*models.Follow, 0, n)
	for _, author := range candidates[:n] {
		follows = append(follows, &models.Follow{UserID: user.ID, AuthorID: author.ID})
	}
	return follows
}

// CreateFollowsBatch persists follow edges in batches.
func (f *Factory) CreateFollowsBatch(follows []*models.Follow) error {
	if len(follows) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, fl := range follows {
			fl.ID = f.assignID()
		}
		return nil
	}
	return f.db.Omit("User", "Author").CreateInBatches(follows, f.opts.BatchSize).Error
}
