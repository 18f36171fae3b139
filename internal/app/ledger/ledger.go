// Package ledger is the only code path allowed to mutate the three
// membership representations: the cache arrays on clubs, the cache arrays
// on students, and the officer_roles relation. Every operation checks all
// preconditions before the first write and applies its writes inside one
// transaction, so the representations move in lockstep.
package ledger

import (
	"context"
	"errors"

	"github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/store/officerroles"
	"github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Ledger struct {
	client   *mongo.Client
	students *studentstore.Store
	clubs    *clubstore.Store
	roles    *rolestore.Store
	log      *zap.Logger
}

func New(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Ledger {
	return &Ledger{
		client:   client,
		students: studentstore.New(db),
		clubs:    clubstore.New(db),
		roles:    rolestore.New(db),
		log:      log,
	}
}

func errClubNotFound() error {
	return apperr.NotFound("club_not_found", "Club not found.")
}

func errStudentNotFound() error {
	return apperr.NotFound("student_not_found", "Student not found.")
}

// contains reports whether id is in ids.
func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// isMember checks every membership representation, not just the club cache,
// so a half-written legacy row still counts as a member.
func (l *Ledger) isMember(ctx context.Context, club models.Club, studentID primitive.ObjectID) (bool, error) {
	if contains(club.MemberIDs, studentID) ||
		contains(club.Officers, studentID) ||
		contains(club.PresidentIDs, studentID) {
		return true, nil
	}
	_, err := l.roles.Get(ctx, club.ID, studentID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// Join adds the student to the club. A second Join without an intervening
// Leave is rejected rather than treated as a no-op.
func (l *Ledger) Join(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	club, err := l.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errClubNotFound()
		}
		return err
	}
	if _, err := l.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errStudentNotFound()
		}
		return err
	}
	member, err := l.isMember(ctx, club, studentID)
	if err != nil {
		return err
	}
	if member {
		return apperr.Conflict("already_member", "Student is already a member of this club.")
	}

	err = txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
		if err := l.clubs.AddMember(ctx, clubID, studentID); err != nil {
			return err
		}
		return l.students.AddClub(ctx, studentID, clubID)
	})
	if err != nil {
		return err
	}
	l.log.Info("student joined club",
		zap.String("club_id", clubID.Hex()),
		zap.String("student_id", studentID.Hex()))
	return nil
}

// Leave removes the student from the club. Students holding a leadership
// role must transfer it first.
func (l *Ledger) Leave(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	club, err := l.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errClubNotFound()
		}
		return err
	}
	member, err := l.isMember(ctx, club, studentID)
	if err != nil {
		return err
	}
	if !member {
		return apperr.Conflict("not_a_member", "Student is not a member of this club.")
	}
	role, err := l.roles.Get(ctx, clubID, studentID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	if err == nil && (role.Role == models.RolePresident || role.Role == models.RoleManagingExec) {
		return apperr.Conflict("must_transfer_role_first",
			"Transfer your leadership role before leaving the club.")
	}

	return l.removeEverywhere(ctx, clubID, studentID)
}

// removeEverywhere clears the student from all three representations.
func (l *Ledger) removeEverywhere(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	return txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
		if err := l.clubs.RemoveMember(ctx, clubID, studentID); err != nil {
			return err
		}
		if err := l.students.RemoveClub(ctx, studentID, clubID); err != nil {
			return err
		}
		if err := l.students.SetFavorite(ctx, studentID, clubID, false); err != nil {
			return err
		}
		_, err := l.roles.Delete(ctx, clubID, studentID)
		return err
	})
}

// Kick removes a target member on behalf of the club president. Returns the
// remaining unique member count.
func (l *Ledger) Kick(ctx context.Context, clubID, targetID, actorID primitive.ObjectID) (int, error) {
	club, err := l.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, errClubNotFound()
		}
		return 0, err
	}
	isPres, err := l.roles.IsPresident(ctx, clubID, actorID)
	if err != nil {
		return 0, err
	}
	if !isPres {
		return 0, apperr.Forbidden("only_president_can_kick", "Only the club president can remove members.")
	}
	if targetID == actorID {
		return 0, apperr.Conflict("cannot_kick_self", "You cannot remove yourself; leave the club instead.")
	}
	targetIsPres, err := l.roles.IsPresident(ctx, clubID, targetID)
	if err != nil {
		return 0, err
	}
	// Legacy clubs can carry stale president cache entries with no role row;
	// the seat is protected in either representation.
	if targetIsPres || contains(club.PresidentIDs, targetID) {
		return 0, apperr.Forbidden("cannot_kick_president", "The club president cannot be removed.")
	}
	member, err := l.isMember(ctx, club, targetID)
	if err != nil {
		return 0, err
	}
	if !member {
		return 0, apperr.NotFound("not_a_member", "Student is not a member of this club.")
	}

	if err := l.removeEverywhere(ctx, clubID, targetID); err != nil {
		return 0, err
	}
	l.log.Info("member kicked",
		zap.String("club_id", clubID.Hex()),
		zap.String("target_id", targetID.Hex()),
		zap.String("actor_id", actorID.Hex()))

	return l.memberCount(ctx, clubID)
}

// memberCount re-reads the club and counts the unique member union.
func (l *Ledger) memberCount(ctx context.Context, clubID primitive.ObjectID) (int, error) {
	club, err := l.clubs.GetByID(ctx, clubID)
	if err != nil {
		return 0, err
	}
	roleRows, err := l.roles.ListByClub(ctx, clubID)
	if err != nil {
		return 0, err
	}
	seen := map[primitive.ObjectID]struct{}{}
	for _, id := range club.MemberIDs {
		seen[id] = struct{}{}
	}
	for _, id := range club.Officers {
		seen[id] = struct{}{}
	}
	for _, id := range club.PresidentIDs {
		seen[id] = struct{}{}
	}
	for _, r := range roleRows {
		seen[r.StudentID] = struct{}{}
	}
	return len(seen), nil
}

// AddMemberByEmail adds a student found by case-insensitive email, on behalf
// of a president or officer. Returns the added student's public view.
func (l *Ledger) AddMemberByEmail(ctx context.Context, clubID primitive.ObjectID, email string, actorID primitive.ObjectID) (models.PublicView, error) {
	club, err := l.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PublicView{}, errClubNotFound()
		}
		return models.PublicView{}, err
	}
	actorRole, err := l.roles.Get(ctx, clubID, actorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PublicView{}, apperr.Forbidden("not_an_officer",
				"Only club officers can add members.")
		}
		return models.PublicView{}, err
	}
	switch actorRole.Role {
	case models.RolePresident, models.RoleOfficer, models.RoleManagingExec:
	default:
		return models.PublicView{}, apperr.Forbidden("not_an_officer",
			"Only club officers can add members.")
	}

	student, err := l.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PublicView{}, apperr.NotFound("student_not_found",
				"No student found with that email.")
		}
		return models.PublicView{}, err
	}
	member, err := l.isMember(ctx, club, student.ID)
	if err != nil {
		return models.PublicView{}, err
	}
	if member {
		return models.PublicView{}, apperr.Conflict("already_member",
			"Student is already a member of this club.")
	}

	err = txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
		if err := l.clubs.AddMember(ctx, clubID, student.ID); err != nil {
			return err
		}
		return l.students.AddClub(ctx, student.ID, clubID)
	})
	if err != nil {
		return models.PublicView{}, err
	}
	return student.Public(), nil
}

// EstablishPresident seats the founding president of a club that has none.
// Used at club creation; once a president exists, the only path to the title
// is a Promote transfer.
func (l *Ledger) EstablishPresident(ctx context.Context, clubID, studentID primitive.ObjectID) error {
	if _, err := l.clubs.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errClubNotFound()
		}
		return err
	}
	if _, err := l.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errStudentNotFound()
		}
		return err
	}
	if _, ok, err := l.roles.PresidentOf(ctx, clubID); err != nil {
		return err
	} else if ok {
		return apperr.Conflict("president_exists", "This club already has a president.")
	}

	err := txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
		if _, err := l.roles.Create(ctx, clubID, studentID, models.RolePresident); err != nil {
			return err
		}
		if err := l.clubs.SetPresident(ctx, clubID, studentID); err != nil {
			return err
		}
		if err := l.students.AddClub(ctx, studentID, clubID); err != nil {
			return err
		}
		return l.students.AddOfficerClub(ctx, studentID, clubID)
	})
	if err != nil {
		if errors.Is(err, rolestore.ErrPresidentExists) {
			return apperr.Conflict("president_exists", "This club already has a president.")
		}
		return err
	}
	l.log.Info("founding president established",
		zap.String("club_id", clubID.Hex()),
		zap.String("student_id", studentID.Hex()))
	return nil
}

// Promote grants a role. Promoting to president transfers the title: the
// outgoing president becomes an officer, the target becomes the sole
// president, and the club's president cache collapses to the target.
func (l *Ledger) Promote(ctx context.Context, clubID, targetID primitive.ObjectID, newRole string, promoterID primitive.ObjectID) error {
	if newRole != models.RoleOfficer && newRole != models.RolePresident {
		return apperr.Validation("invalid_role", "Role must be officer or president.")
	}
	club, err := l.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errClubNotFound()
		}
		return err
	}
	isPres, err := l.roles.IsPresident(ctx, clubID, promoterID)
	if err != nil {
		return err
	}
	if !isPres {
		return apperr.Forbidden("only_president_can_promote", "Only the club president can promote members.")
	}
	member, err := l.isMember(ctx, club, targetID)
	if err != nil {
		return err
	}
	if !member {
		return apperr.NotFound("not_a_member", "Student is not a member of this club.")
	}

	if newRole == models.RoleOfficer {
		err = txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
			if err := l.upsertRole(ctx, clubID, targetID, models.RoleOfficer); err != nil {
				return err
			}
			if err := l.clubs.AddOfficer(ctx, clubID, targetID); err != nil {
				return err
			}
			return l.students.AddOfficerClub(ctx, targetID, clubID)
		})
		if err != nil {
			return err
		}
		l.log.Info("member promoted to officer",
			zap.String("club_id", clubID.Hex()),
			zap.String("target_id", targetID.Hex()))
		return nil
	}

	// President transfer.
	err = txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
		// Clear both parties' rows first so the partial unique index never
		// sees two presidents.
		if _, err := l.roles.Delete(ctx, clubID, promoterID); err != nil {
			return err
		}
		if _, err := l.roles.Delete(ctx, clubID, targetID); err != nil {
			return err
		}
		if _, err := l.roles.Create(ctx, clubID, promoterID, models.RoleOfficer); err != nil {
			return err
		}
		if _, err := l.roles.Create(ctx, clubID, targetID, models.RolePresident); err != nil {
			return err
		}
		if err := l.clubs.SetPresident(ctx, clubID, targetID); err != nil {
			return err
		}
		if err := l.clubs.AddOfficer(ctx, clubID, promoterID); err != nil {
			return err
		}
		if err := l.students.AddOfficerClub(ctx, targetID, clubID); err != nil {
			return err
		}
		return l.students.AddOfficerClub(ctx, promoterID, clubID)
	})
	if err != nil {
		return err
	}
	l.log.Info("president role transferred",
		zap.String("club_id", clubID.Hex()),
		zap.String("from", promoterID.Hex()),
		zap.String("to", targetID.Hex()))
	return nil
}

// Demote strips a member's officer role, returning them to plain
// membership. The presidency cannot be demoted away; it only moves through
// a Promote transfer.
func (l *Ledger) Demote(ctx context.Context, clubID, targetID, demoterID primitive.ObjectID) error {
	if _, err := l.clubs.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errClubNotFound()
		}
		return err
	}
	isPres, err := l.roles.IsPresident(ctx, clubID, demoterID)
	if err != nil {
		return err
	}
	if !isPres {
		return apperr.Forbidden("only_president_can_demote", "Only the club president can demote officers.")
	}
	role, err := l.roles.Get(ctx, clubID, targetID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("not_an_officer", "Student holds no role in this club.")
		}
		return err
	}
	if role.Role == models.RolePresident {
		return apperr.Conflict("cannot_demote_president",
			"The presidency is transferred with a promotion, not demoted.")
	}

	err = txn.WithTransaction(ctx, l.client, func(ctx context.Context) error {
		if _, err := l.roles.Delete(ctx, clubID, targetID); err != nil {
			return err
		}
		if err := l.clubs.RemoveOfficer(ctx, clubID, targetID); err != nil {
			return err
		}
		return l.students.RemoveOfficerClub(ctx, targetID, clubID)
	})
	if err != nil {
		return err
	}
	l.log.Info("officer demoted",
		zap.String("club_id", clubID.Hex()),
		zap.String("target_id", targetID.Hex()),
		zap.String("actor_id", demoterID.Hex()))
	return nil
}

// upsertRole replaces any existing row for (club, student) with the given role.
func (l *Ledger) upsertRole(ctx context.Context, clubID, studentID primitive.ObjectID, role string) error {
	err := l.roles.UpdateRole(ctx, clubID, studentID, role)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	_, err = l.roles.Create(ctx, clubID, studentID, role)
	return err
}
