package repository

import (
	"blogsphere/internal/database"

	"gorm.io/gorm"
)

// feedOrder is the total order every post listing uses: newest first, ties
// broken by ascending id.
const feedOrder = "posts.created_at DESC, posts.id ASC"

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// window applies limit/offset; non-positive values leave the query unbounded.
func window(db *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	return db
}
