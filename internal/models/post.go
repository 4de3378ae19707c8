// Package models contains data structures for the application's domain models.
package models

import "time"

// Post is an authored content item, optionally tagged with a Group and an image.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint  `gorm:"index" json:"group_id"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is the blob store key of the attached image, empty when there is none.
	Image string `gorm:"size:255" json:"image,omitempty"`
	// ImageURL is resolved from Image when the post is rendered.
	ImageURL     string    `gorm:"-" json:"image_url,omitempty"`
	ThumbnailURL string    `gorm:"-" json:"thumbnail_url,omitempty"`
	PubDate      time.Time `gorm:"autoCreateTime;index:idx_posts_pub_date,sort:desc" json:"pub_date"`
}

// Comment is a text reply attached to a post.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"post_id"`
	Post     *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pub_date"`
}
