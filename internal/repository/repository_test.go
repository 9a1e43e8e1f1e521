package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourflow/tourflow/internal/model"
)

var ts = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *TourRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return mock, func() *TourRepo { return NewTourRepo(db) }
}

var tourColumns = []string{"id", "owner_id", "name", "artist", "status", "start_date", "end_date", "created_at", "updated_at"}

var showColumns = []string{"id", "tour_id", "venue", "city", "state", "country", "show_date",
	"load_in", "soundcheck", "doors", "show_time", "curfew",
	"contact_name", "contact_email", "contact_phone", "capacity", "status", "notes",
	"created_at", "updated_at",
	"guarantee_cents", "gross_cents", "expenses_cents", "percentage", "merch_cents", "st_notes", "st_updated_at"}

func showValues(id, tourID, venue string, settled bool) []driver.Value {
	v := []driver.Value{id, tourID, venue, "London", "", "UK", "2026-06-01",
		"14:00", "17:00", "19:00", "20:30", "23:00",
		"Alex", "alex@venue.test", "", 1200, "confirmed", "",
		ts, ts}
	if settled {
		return append(v, 50000, 200000, 50000, "50.00", 0, "", ts)
	}
	return append(v, nil, nil, nil, nil, nil, nil, nil)
}

func TestTourAccessLevels(t *testing.T) {
	mock, repo := newMock(t)
	r := repo()
	q := "SELECT t.owner_id, m.role FROM tours t"

	mock.ExpectQuery(q).WithArgs(7, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}).AddRow(7, nil))
	mock.ExpectQuery(q).WithArgs(8, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}).AddRow(7, "admin"))
	mock.ExpectQuery(q).WithArgs(9, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}).AddRow(7, "member"))
	mock.ExpectQuery(q).WithArgs(10, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}).AddRow(7, nil))
	mock.ExpectQuery(q).WithArgs(7, "missing").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}))

	ctx := context.Background()
	for _, tc := range []struct {
		user uint64
		want string
	}{{7, model.AccessOwner}, {8, model.AccessAdmin}, {9, model.AccessMember}, {10, model.AccessNone}} {
		got, err := r.Access(ctx, "t1", tc.user)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "user %d", tc.user)
	}
	_, err := r.Access(ctx, "missing", 7)
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestTourCreate(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectExec("INSERT INTO tours").
		WithArgs(sqlmock.AnyArg(), 7, "Summer Run", "The Band", "upcoming", "2026-06-01", "2026-06-30", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tour := &model.Tour{OwnerID: 7, Name: "Summer Run", Artist: "The Band", Status: model.TourUpcoming, StartDate: "2026-06-01", EndDate: "2026-06-30"}
	require.NoError(t, repo().Create(context.Background(), tour))
	assert.Len(t, tour.ID, 36)
	assert.NotNil(t, tour.Shows)
}

func TestTourListGroupsShows(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery("SELECT t.id, t.owner_id").WithArgs(7, 7).
		WillReturnRows(sqlmock.NewRows(tourColumns).
			AddRow("t1", 7, "Run A", "", "active", "2026-05-01", "2026-05-30", ts, ts).
			AddRow("t2", 3, "Run B", "", "upcoming", "2026-07-01", "", ts, ts))
	mock.ExpectQuery("FROM shows s LEFT JOIN settlements").WithArgs(7, 7).
		WillReturnRows(sqlmock.NewRows(showColumns).
			AddRow(showValues("s1", "t1", "Hall", true)...).
			AddRow(showValues("s2", "t1", "Club", false)...).
			AddRow(showValues("s3", "t2", "Arena", false)...))

	tours, err := repo().ListForUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tours, 2)
	assert.Equal(t, 2, tours[0].ShowCount())
	assert.Equal(t, 1, tours[1].ShowCount())

	s1 := tours[0].Shows[0]
	assert.Equal(t, "19:00", s1.Timeline.Doors)
	require.NotNil(t, s1.Settlement)
	assert.Equal(t, 50.0, s1.Settlement.Percentage)
	assert.Equal(t, int64(75000), s1.Settlement.PayoutCents())
	assert.Nil(t, tours[0].Shows[1].Settlement)
}

func TestTourDelete(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT owner_id FROM tours").WithArgs("t1").
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(3))
		mock.ExpectRollback()
		assert.ErrorIs(t, repo().Delete(context.Background(), "t1", 7), ErrForbidden)
	})
	t.Run("cascade", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT owner_id FROM tours").WithArgs("t1").
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(7))
		for i := 0; i < 9; i++ {
			mock.ExpectExec(".*").WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectCommit()
		assert.NoError(t, repo().Delete(context.Background(), "t1", 7))
	})
}

func TestSweepStatuses(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery("SELECT id, status, start_date, end_date FROM tours").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "start_date", "end_date"}).
			AddRow("t1", "upcoming", "2026-04-20", "2026-05-10").
			AddRow("t2", "active", "2026-04-20", "2026-05-10").
			AddRow("t3", "active", "2026-01-01", "2026-02-01"))
	mock.ExpectExec("UPDATE tours SET status").WithArgs("active", sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tours SET status").WithArgs("completed", sqlmock.AnyArg(), "t3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo().SweepStatuses(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestShowGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("FROM shows s LEFT JOIN settlements").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(showColumns))
	_, err = NewShowRepo(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrShowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSettlement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("INSERT INTO settlements").
		WithArgs("s1", 100, 200, 50, 80.0, 0, "cash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	st := &model.Settlement{ShowID: "s1", GuaranteeCents: 100, GrossCents: 200, ExpensesCents: 50, Percentage: 80, Notes: "cash"}
	require.NoError(t, NewShowRepo(db).UpsertSettlement(context.Background(), st))
	assert.False(t, st.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitation(t *testing.T) {
	cols := []string{"id", "tour_id", "email", "role", "invited_by", "expires_at", "accepted_at", "created_at"}
	now := ts
	later := ts.Add(24 * time.Hour)

	cases := []struct {
		name     string
		row      []driver.Value
		email    string
		wantErr  error
		accepted bool
	}{
		{"ok", []driver.Value{"i1", "t1", "sam@example.com", "admin", 7, later, nil, ts}, "Sam@Example.com", nil, true},
		{"expired", []driver.Value{"i1", "t1", "sam@example.com", "member", 7, ts.Add(-time.Hour), nil, ts}, "sam@example.com", ErrInvitationExpired, false},
		{"used", []driver.Value{"i1", "t1", "sam@example.com", "member", 7, later, ts, ts}, "sam@example.com", ErrConflict, false},
		{"wrong email", []driver.Value{"i1", "t1", "sam@example.com", "member", 7, later, nil, ts}, "kim@example.com", ErrForbidden, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			mock.ExpectBegin()
			mock.ExpectQuery("FROM invitations WHERE token_hash").WithArgs("hash").
				WillReturnRows(sqlmock.NewRows(cols).AddRow(tc.row...))
			if tc.accepted {
				mock.ExpectExec("INSERT INTO tour_members").WithArgs("t1", 9, "admin", now).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("UPDATE invitations SET accepted_at").WithArgs(now, "i1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			inv, err := NewMemberRepo(db).AcceptInvitation(context.Background(), "hash", 9, tc.email, now)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, inv.AcceptedAt)
				assert.Equal(t, model.CrewAdmin, inv.Role)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGearListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "owner_id", "name", "category", "quantity", "dimensions", "weight_kg", "condition", "fly_pack", "location", "notes", "created_at", "updated_at"}
	mock.ExpectQuery("WHERE owner_id = \\? AND category = \\? AND fly_pack = \\?").
		WithArgs(7, "microphones", true).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("g1", 7, "SM58", "microphones", 4, "", "0.30", "good", true, "Case 1", "", ts, ts))

	fly := true
	items, err := NewGearRepo(db).List(context.Background(), 7, GearFilter{Category: model.GearMicrophones, FlyPack: &fly})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0.3, items[0].WeightKg)
	assert.True(t, items[0].FlyPack)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGearUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("UPDATE gear SET").WillReturnResult(sqlmock.NewResult(0, 0))
	err = NewGearRepo(db).Update(context.Background(), &model.GearItem{ID: "g1", OwnerID: 7})
	assert.ErrorIs(t, err, ErrGearNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInputListCreateSeeds32Channels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO input_lists").
		WithArgs(sqlmock.AnyArg(), 7, nil, "Festival", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	args := make([]driver.Value, 0, 32*9)
	for n := 1; n <= 32; n++ {
		src := ""
		if n == 2 {
			src = "Snare"
		}
		args = append(args, sqlmock.AnyArg(), n, src, "", "", "", "", false, false)
	}
	mock.ExpectExec("INSERT INTO input_channels").WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 32))
	mock.ExpectCommit()

	l := &model.InputList{OwnerID: 7, Name: "Festival", Channels: []model.InputChannel{{Number: 2, Source: "Snare"}}}
	require.NoError(t, NewInputListRepo(db).Create(context.Background(), l))
	assert.Len(t, l.Channels, model.ChannelCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateChannelRejectsOutOfRange(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	err = NewInputListRepo(db).UpdateChannel(context.Background(), "l1", 7, model.InputChannel{Number: 33})
	assert.ErrorIs(t, err, model.ErrChannelRange)
}

func TestTaskListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	cols := []string{"id", "owner_id", "title", "status", "priority", "tour_id", "show_id", "due_date", "created_at", "updated_at"}
	mock.ExpectQuery("WHERE owner_id = \\? AND tour_id = \\? AND status = \\?").
		WithArgs(7, "t1", "todo").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("k1", 7, "Advance", "todo", "high", "t1", nil, "2026-05-03", ts, ts))

	tasks, err := NewTaskRepo(db).List(context.Background(), 7, TaskFilter{TourID: "t1", Status: model.TaskTodo})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].TourID)
	assert.Equal(t, "", tasks[0].ShowID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRotateReplay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs("old", 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = NewTokenRepo(db).Rotate(context.Background(), 7, "old", "new", ts)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("sam@example.com", "Sam", sqlmock.AnyArg(), "ENGINEER").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	_, err = NewUserRepo(db).Create(context.Background(), " Sam@Example.com", "Sam", "password123", model.RoleEngineer, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrewAddMemberResolvesAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT id FROM users WHERE email").WithArgs("kim@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec("INSERT INTO crew_members").
		WithArgs(sqlmock.AnyArg(), "c1", 12, "Kim", "kim@example.com", "Monitors", "member").
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := &model.CrewMemberLink{CrewID: "c1", Name: "Kim", Email: "KIM@example.com", Position: "Monitors", Role: model.CrewMember}
	require.NoError(t, NewCrewRepo(db).AddMember(context.Background(), m))
	assert.Equal(t, uint64(12), m.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
