package listing

import (
	"cmp"
	"fmt"
	"strings"

	"maitred/internal/models"
)

// UserQuery selects and orders admin portal users
type UserQuery struct {
	Search    string
	Role      models.UserRole
	Status    models.UserStatus
	SortKey   string
	Direction Direction
}

// Apply filters and sorts users
func (q UserQuery) Apply(users []models.User) ([]models.User, error) {
	filtered := Filter(users,
		func(u models.User) bool { return MatchesText(q.Search, u.Name, u.Email) },
		Equals(q.Role, func(u models.User) models.UserRole { return u.Role }),
		Equals(q.Status, func(u models.User) models.UserStatus { return u.Status }),
	)

	var less func(a, b models.User) int
	switch q.SortKey {
	case "", SortByDate:
		less = func(a, b models.User) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByName:
		less = func(a, b models.User) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	default:
		return nil, fmt.Errorf("invalid user sort key %q", q.SortKey)
	}

	dir := q.Direction
	if dir == "" {
		dir = Descending
	}
	return SortBy(filtered, less, dir), nil
}

// CountByRole returns how many users hold each role
func CountByRole(users []models.User) map[models.UserRole]int {
	counts := make(map[models.UserRole]int)
	for _, u := range users {
		counts[u.Role]++
	}
	return counts
}
