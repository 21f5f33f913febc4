package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostString(t *testing.T) {
	date := time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC)
	post := Post{
		Text:    "Тестовый текст длиннее пятнадцати символов",
		PubDate: date,
		Author:  User{Username: "leo"},
	}
	assert.Equal(t, "Group: no group, Author: leo, Date: 2021-03-14, Тестовый текст ", post.String())

	post.Group = &Group{Title: "Cats"}
	post.Text = "short"
	assert.Equal(t, "Group: Cats, Author: leo, Date: 2021-03-14, short", post.String())
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "Cats", Group{Title: "Cats", Slug: "cats"}.String())
}
