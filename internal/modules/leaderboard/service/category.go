package leaderboard

import (
	"fmt"

	"clubdev.app/gamify/internal/model"
	"clubdev.app/gamify/pkg/apperror"
)

// Leaderboard categories. Global spans every kind; the rest partition the
// event kinds.
const (
	CategoryGlobal    = "global"
	CategoryCode      = "code"
	CategoryBlog      = "blog"
	CategoryQA        = "qa"
	CategoryChallenge = "challenge"
	CategoryGitHub    = "github"
	CategoryCommunity = "community"
)

var kindCategories = map[string]string{
	model.KindCodeUpload:      CategoryCode,
	model.KindBlogPublish:     CategoryBlog,
	model.KindAnswerAccepted:  CategoryQA,
	model.KindChallengeSolved: CategoryChallenge,
	model.KindGitHubStatSync:  CategoryGitHub,
	model.KindCommentReceived: CategoryCommunity,
	model.KindLikeReceived:    CategoryCommunity,
}

// CategoriesForKind returns every category a grant of the given kind
// contributes to. Global is always included; corrections carry the kind of
// the grant they reverse, so they land in the same categories.
func CategoriesForKind(kind string) []string {
	categories := []string{CategoryGlobal}
	if category, ok := kindCategories[kind]; ok {
		categories = append(categories, category)
	}
	return categories
}

// KindsForCategory is the reverse mapping used by SQL aggregation. An empty
// slice means no kind filter (global).
func KindsForCategory(category string) ([]string, error) {
	if category == "" || category == CategoryGlobal {
		return nil, nil
	}

	var kinds []string
	for kind, cat := range kindCategories {
		if cat == category {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: unknown category %q", apperror.ErrInvalidInput, category)
	}
	return kinds, nil
}
