package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/ledger"
	"github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/store/officerroles"
	"github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	ledger   *ledger.Ledger
	students *studentstore.Store
	clubs    *clubstore.Store
	roles    *rolestore.Store
	db       *mongo.Database
	fx       *testutil.Fixtures
}

func setup(t *testing.T) (*env, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	return &env{
		ledger:   ledger.New(db.Client(), db, zap.NewNop()),
		students: studentstore.New(db),
		clubs:    clubstore.New(db),
		roles:    rolestore.New(db),
		db:       db,
		fx:       testutil.NewFixtures(t, db),
	}, ctx
}

func wantKind(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", code)
	}
	ae := apperr.From(err)
	if ae == nil {
		t.Fatalf("expected apperr, got %v", err)
	}
	if ae.Kind != kind || ae.Code != code {
		t.Fatalf("got kind=%d code=%q, want kind=%d code=%q", ae.Kind, ae.Code, kind, code)
	}
}

func TestJoin_AddsBothRepresentations(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	student := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, student.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	gotClub, err := e.clubs.GetByID(ctx, club.ID)
	if err != nil {
		t.Fatalf("GetByID club: %v", err)
	}
	if len(gotClub.MemberIDs) != 1 || gotClub.MemberIDs[0] != student.ID {
		t.Errorf("club.MemberIDs = %v, want [%s]", gotClub.MemberIDs, student.ID.Hex())
	}

	gotStudent, err := e.students.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetByID student: %v", err)
	}
	if len(gotStudent.MyClubs) != 1 || gotStudent.MyClubs[0] != club.ID {
		t.Errorf("student.MyClubs = %v, want [%s]", gotStudent.MyClubs, club.ID.Hex())
	}
}

func TestJoin_SecondJoinRejected(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	student := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, student.ID); err != nil {
		t.Fatalf("first Join: %v", err)
	}
	err := e.ledger.Join(ctx, club.ID, student.ID)
	wantKind(t, err, apperr.KindConflict, "already_member")
}

func TestJoin_MissingClub(t *testing.T) {
	e, ctx := setup(t)
	student := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	err := e.ledger.Join(ctx, club404(), student.ID)
	wantKind(t, err, apperr.KindNotFound, "club_not_found")
}

func TestLeave_CleansAllRepresentations(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	student := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, student.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := e.ledger.Leave(ctx, club.ID, student.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	gotClub, _ := e.clubs.GetByID(ctx, club.ID)
	if len(gotClub.MemberIDs) != 0 {
		t.Errorf("club.MemberIDs = %v, want empty", gotClub.MemberIDs)
	}
	gotStudent, _ := e.students.GetByID(ctx, student.ID)
	if len(gotStudent.MyClubs) != 0 {
		t.Errorf("student.MyClubs = %v, want empty", gotStudent.MyClubs)
	}
	if _, err := e.roles.Get(ctx, club.ID, student.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no role row after Leave, got err=%v", err)
	}
}

func TestLeave_PresidentMustTransferFirst(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, pres.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	err := e.ledger.Leave(ctx, club.ID, pres.ID)
	wantKind(t, err, apperr.KindConflict, "must_transfer_role_first")
}

func TestKick_OnlyPresident(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	member := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	other := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	for _, s := range []models.Student{member, other} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}

	_, err := e.ledger.Kick(ctx, club.ID, member.ID, other.ID)
	wantKind(t, err, apperr.KindForbidden, "only_president_can_kick")
}

func TestKick_CannotKickSelfOrPresident(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, pres.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	_, err := e.ledger.Kick(ctx, club.ID, pres.ID, pres.ID)
	wantKind(t, err, apperr.KindConflict, "cannot_kick_self")
}

func TestKick_PresidentSeatProtected(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	former := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, pres.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	// Legacy rows can list a president in the club cache with no role row;
	// seed one directly to mimic that shape.
	if _, err := e.db.Collection("clubs").UpdateByID(ctx, club.ID, bson.M{
		"$addToSet": bson.M{"president_ids": former.ID},
	}); err != nil {
		t.Fatalf("seed president cache: %v", err)
	}

	_, err := e.ledger.Kick(ctx, club.ID, former.ID, pres.ID)
	wantKind(t, err, apperr.KindForbidden, "cannot_kick_president")

	gotClub, err := e.clubs.GetByID(ctx, club.ID)
	if err != nil {
		t.Fatalf("GetByID club: %v", err)
	}
	if !containsID(gotClub.PresidentIDs, former.ID) {
		t.Errorf("PresidentIDs = %v, want %s still present", gotClub.PresidentIDs, former.ID.Hex())
	}
}

func TestKick_RemovesAndCounts(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	member := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	for _, s := range []models.Student{pres, member} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	remaining, err := e.ledger.Kick(ctx, club.ID, member.ID, pres.ID)
	if err != nil {
		t.Fatalf("Kick: %v", err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	gotStudent, _ := e.students.GetByID(ctx, member.ID)
	if len(gotStudent.MyClubs) != 0 {
		t.Errorf("kicked student still has MyClubs = %v", gotStudent.MyClubs)
	}
}

func TestAddMemberByEmail_CaseInsensitive(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	officer := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	target := e.fx.CreateStudent(ctx, "Grace Hopper", "Grace.Hopper@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, officer.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, officer.ID, models.RoleOfficer)

	view, err := e.ledger.AddMemberByEmail(ctx, club.ID, "GRACE.HOPPER@EMORY.EDU", officer.ID)
	if err != nil {
		t.Fatalf("AddMemberByEmail: %v", err)
	}
	if view.ID != target.ID.Hex() {
		t.Errorf("added student id = %s, want %s", view.ID, target.ID.Hex())
	}
}

func TestAddMemberByEmail_RequiresOfficer(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	plain := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, plain.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	_, err := e.ledger.AddMemberByEmail(ctx, club.ID, "grace@emory.edu", plain.ID)
	wantKind(t, err, apperr.KindForbidden, "not_an_officer")
}

func TestAddMemberByEmail_StudentNotFound(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, pres.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	_, err := e.ledger.AddMemberByEmail(ctx, club.ID, "nobody@emory.edu", pres.ID)
	wantKind(t, err, apperr.KindNotFound, "student_not_found")
}

func TestPromote_Officer(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	member := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	for _, s := range []models.Student{pres, member} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	if err := e.ledger.Promote(ctx, club.ID, member.ID, models.RoleOfficer, pres.ID); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	role, err := e.roles.Get(ctx, club.ID, member.ID)
	if err != nil {
		t.Fatalf("Get role: %v", err)
	}
	if role.Role != models.RoleOfficer {
		t.Errorf("role = %q, want officer", role.Role)
	}

	gotStudent, _ := e.students.GetByID(ctx, member.ID)
	if len(gotStudent.OfficerClubs) != 1 || gotStudent.OfficerClubs[0] != club.ID {
		t.Errorf("OfficerClubs = %v, want [%s]", gotStudent.OfficerClubs, club.ID.Hex())
	}
}

func TestPromote_PresidentTransfers(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	member := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	for _, s := range []models.Student{pres, member} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	if err := e.ledger.Promote(ctx, club.ID, member.ID, models.RolePresident, pres.ID); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	newPres, ok, err := e.roles.PresidentOf(ctx, club.ID)
	if err != nil {
		t.Fatalf("PresidentOf: %v", err)
	}
	if !ok || newPres.StudentID != member.ID {
		t.Errorf("president = %v, want %s", newPres.StudentID, member.ID.Hex())
	}

	oldRole, err := e.roles.Get(ctx, club.ID, pres.ID)
	if err != nil {
		t.Fatalf("Get old president role: %v", err)
	}
	if oldRole.Role != models.RoleOfficer {
		t.Errorf("outgoing president role = %q, want officer", oldRole.Role)
	}

	gotClub, _ := e.clubs.GetByID(ctx, club.ID)
	if len(gotClub.PresidentIDs) != 1 || gotClub.PresidentIDs[0] != member.ID {
		t.Errorf("PresidentIDs = %v, want [%s]", gotClub.PresidentIDs, member.ID.Hex())
	}
}

func TestPromote_InvalidRole(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, pres.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	err := e.ledger.Promote(ctx, club.ID, pres.ID, "emperor", pres.ID)
	wantKind(t, err, apperr.KindValidation, "invalid_role")
}

func TestPromote_ConcurrentPresidentTransfers(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	first := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")
	second := e.fx.CreateStudent(ctx, "Alan Turing", "alan@emory.edu")

	for _, s := range []models.Student{pres, first, second} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	// Race two transfers of the same presidency to different targets.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, target := range []primitive.ObjectID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, target primitive.ObjectID) {
			defer wg.Done()
			errs[i] = e.ledger.Promote(ctx, club.ID, target, models.RolePresident, pres.ID)
		}(i, target)
	}
	wg.Wait()

	if errs[0] == nil && errs[1] == nil {
		t.Error("both transfers reported success; one should have lost")
	}

	rows, err := e.roles.ListByClub(ctx, club.ID)
	if err != nil {
		t.Fatalf("ListByClub: %v", err)
	}
	presidents := 0
	for _, r := range rows {
		if r.Role == models.RolePresident {
			presidents++
		}
	}
	if presidents != 1 {
		t.Errorf("president rows = %d, want exactly 1", presidents)
	}

	gotClub, err := e.clubs.GetByID(ctx, club.ID)
	if err != nil {
		t.Fatalf("GetByID club: %v", err)
	}
	if len(gotClub.PresidentIDs) != 1 {
		t.Errorf("PresidentIDs = %v, want exactly one entry", gotClub.PresidentIDs)
	}
}

func TestDemote_ClearsOfficerEverywhere(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	officer := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	for _, s := range []models.Student{pres, officer} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)
	if err := e.ledger.Promote(ctx, club.ID, officer.ID, models.RoleOfficer, pres.ID); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	if err := e.ledger.Demote(ctx, club.ID, officer.ID, pres.ID); err != nil {
		t.Fatalf("Demote: %v", err)
	}

	if _, err := e.roles.Get(ctx, club.ID, officer.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no role row after Demote, got err=%v", err)
	}
	gotClub, _ := e.clubs.GetByID(ctx, club.ID)
	if containsID(gotClub.Officers, officer.ID) {
		t.Errorf("club.Officers = %v, want %s removed", gotClub.Officers, officer.ID.Hex())
	}
	if !containsID(gotClub.MemberIDs, officer.ID) {
		t.Errorf("club.MemberIDs = %v, demoted officer should stay a member", gotClub.MemberIDs)
	}
	gotStudent, _ := e.students.GetByID(ctx, officer.ID)
	if len(gotStudent.OfficerClubs) != 0 {
		t.Errorf("student.OfficerClubs = %v, want empty", gotStudent.OfficerClubs)
	}
}

func TestDemote_PresidencyBlocked(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	pres := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")

	if err := e.ledger.Join(ctx, club.ID, pres.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	e.fx.CreateOfficerRole(ctx, club.ID, pres.ID, models.RolePresident)

	err := e.ledger.Demote(ctx, club.ID, pres.ID, pres.ID)
	wantKind(t, err, apperr.KindConflict, "cannot_demote_president")
}

func TestDemote_OnlyPresident(t *testing.T) {
	e, ctx := setup(t)
	club := e.fx.CreateClub(ctx, "Chess Club")
	officer := e.fx.CreateStudent(ctx, "Ada Lovelace", "ada@emory.edu")
	other := e.fx.CreateStudent(ctx, "Grace Hopper", "grace@emory.edu")

	for _, s := range []models.Student{officer, other} {
		if err := e.ledger.Join(ctx, club.ID, s.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	e.fx.CreateOfficerRole(ctx, club.ID, officer.ID, models.RoleOfficer)

	err := e.ledger.Demote(ctx, club.ID, other.ID, officer.ID)
	wantKind(t, err, apperr.KindForbidden, "only_president_can_demote")
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func club404() primitive.ObjectID {
	return primitive.NewObjectID()
}
