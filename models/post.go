package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Post is a text entry by its author, optionally filed under a group and carrying an image.
// PubDate is assigned on insert and never updated; feeds sort on it, newest first.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"index;not null" json:"pub_date"`
	AuthorID uint      `gorm:"index;not null" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	Image    string    `gorm:"size:255" json:"image,omitempty"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate stamps the publication date.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	return nil
}

// String renders the admin-list representation; it expects Author (and Group when set) loaded.
func (p Post) String() string {
	group := "no group"
	if p.Group != nil {
		group = p.Group.Title
	}
	text := []rune(p.Text)
	if len(text) > 15 {
		text = text[:15]
	}
	return fmt.Sprintf("Group: %s, Author: %s, Date: %s, %s",
		group, p.Author.Username, p.PubDate.Format("2006-01-02"), string(text))
}
