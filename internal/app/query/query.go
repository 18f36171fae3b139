// Package query is the read side of the membership ledger. Projections
// always union the redundant membership sources (club arrays, student
// arrays, officer_roles) and de-dupe by id, so a reader never depends on a
// single representation being complete.
package query

import (
	"sort"

	"github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/store/officerroles"
	"github.com/dalemusser/clubhub/internal/app/store/reviews"
	"github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	students *studentstore.Store
	clubs    *clubstore.Store
	roles    *rolestore.Store
	events   *eventstore.Store
	reviews  *reviewstore.Store
	log      *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Service {
	return &Service{
		students: studentstore.New(db),
		clubs:    clubstore.New(db),
		roles:    rolestore.New(db),
		events:   eventstore.New(db),
		reviews:  reviewstore.New(db),
		log:      log,
	}
}

// Position labels, in display priority order.
const (
	PositionPresident = "President"
	PositionOfficer   = "Officer"
	PositionMember    = "Member"
)

// positionRank orders president > officer > member for sorting.
func positionRank(pos string) int {
	switch pos {
	case PositionPresident:
		return 0
	case PositionOfficer:
		return 1
	default:
		return 2
	}
}

// roleLabel maps a stored role value to its display position. Managing
// execs surface as officers.
func roleLabel(role string) string {
	switch role {
	case models.RolePresident:
		return PositionPresident
	case models.RoleOfficer, models.RoleManagingExec:
		return PositionOfficer
	default:
		return PositionMember
	}
}

// union collects unique ids preserving first-seen order.
func union(lists ...[]primitive.ObjectID) []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{}
	var out []primitive.ObjectID
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func sortByPosition(views []MemberView) {
	sort.SliceStable(views, func(i, j int) bool {
		ri, rj := positionRank(views[i].Position), positionRank(views[j].Position)
		if ri != rj {
			return ri < rj
		}
		return views[i].Name < views[j].Name
	})
}
