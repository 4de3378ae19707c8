package seed

import (
	"context"
	"fmt"

	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInGroup is a group every installation starts with.
type BuiltInGroup struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// BuiltInGroups are created by the seeder and by bootstrap in development.
var BuiltInGroups = []BuiltInGroup{
	{Title: "Announcements", Slug: "announcements", Description: "News about the site."},
	{Title: "Books", Slug: "books", Description: "Reading lists, reviews and writing."},
	{Title: "Cats", Slug: "cats", Description: "Pictures of cats, mostly."},
	{Title: "Cooking", Slug: "cooking", Description: "Recipes and kitchen disasters."},
	{Title: "Films", Slug: "films", Description: "Film discussion and recommendations."},
	{Title: "Music", Slug: "music", Description: "Music discovery and discussion."},
	{Title: "Programming", Slug: "programming", Description: "Code, tools and war stories."},
	{Title: "Travel", Slug: "travel", Description: "Trip reports and photos."},
}

// Groups upserts the given groups by slug and returns them with IDs set.
func Groups(ctx context.Context, db *gorm.DB, items []BuiltInGroup) ([]models.Group, error) {
	out := make([]models.Group, 0, len(items))
	for _, item := range items {
		group := models.Group{
			Title:       item.Title,
			Slug:        item.Slug,
			Description: item.Description,
		}
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error
		if err != nil {
			return nil, fmt.Errorf("seed group %s: %w", item.Slug, err)
		}
		// The upsert does not report the ID of an existing row on every driver.
		var stored models.Group
		if err := db.WithContext(ctx).Where("slug = ?", item.Slug).First(&stored).Error; err != nil {
			return nil, fmt.Errorf("reload group %s: %w", item.Slug, err)
		}
		out = append(out, stored)
	}
	return out, nil
}
