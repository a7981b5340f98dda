// Package seed generates demo data: identities, posts and a follow graph.
// It is meant for development and tests only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"blogsphere/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities with realistic fake content. It does not
// persist anything; the Seeder decides how rows are written.
type Factory struct {
	faker   *gofakeit.Faker
	now     time.Time
	maxDays int
}

// NewFactory returns a factory. A zero seed picks a random one; posts are
// spread over the maxDays before now.
func NewFactory(seed int64, now time.Time, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{faker: gofakeit.New(seed), now: now, maxDays: maxDays}
}

// Username returns a handle that satisfies the username rules. The base is
// letters only, so the numeric suffix n alone keeps handles unique.
func (f *Factory) Username(n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(f.faker.Username()) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "user"
	}
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("%s_%d", name, n)
}

// BuildUser returns an unsaved user with the given handle.
func (f *Factory) BuildUser(username string, overrides ...func(*models.User)) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Bio:      f.faker.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildPost returns an unsaved post by author with a created_at somewhere
// in the factory's window. Roughly a third of posts carry an image.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	created := f.faker.DateRange(f.now.AddDate(0, 0, -f.maxDays), f.now).UTC()
	post := &models.Post{
		Body:      f.body(),
		UserID:    author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if f.faker.Number(1, 3) == 1 {
		url := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
		post.ImageURL = &url
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// body mixes plain paragraphs with a little Markdown so rendered feeds have
// something to render.
func (f *Factory) body() string {
	text := f.faker.Paragraph(1, f.faker.Number(1, 4), 12, "\n\n")
	switch f.faker.Number(1, 4) {
	case 1:
		return fmt.Sprintf("**%s**\n\n%s", f.faker.HipsterSentence(4), text)
	case 2:
		return fmt.Sprintf("%s\n\n[%s](%s)", text, f.faker.DomainName(), f.faker.URL())
	default:
		return text
	}
}

// Pick returns up to n distinct indexes in [0, total) other than skip.
func (f *Factory) Pick(total, n, skip int) []int {
	out := make([]int, 0, n)
	for _, i := range f.faker.Rand.Perm(total) {
		if len(out) == n {
			break
		}
		if i != skip {
			out = append(out, i)
		}
	}
	return out
}
