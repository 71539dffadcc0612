package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskstate/internal/model"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "alice@example.com", want: "alice@example.com"},
		{name: "case preserved", in: "Alice@Example.com", want: "Alice@Example.com"},
		{name: "trimmed", in: "  bob@example.org ", want: "bob@example.org"},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
		{name: "no at", in: "alice", wantErr: true},
		{name: "no domain", in: "alice@", wantErr: true},
		{name: "display name", in: "Alice <alice@example.com>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Email(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTitle(t *testing.T) {
	assert.NoError(t, Title("a"))
	assert.NoError(t, Title(strings.Repeat("x", model.TitleMaxLen)))
	assert.NoError(t, Title(strings.Repeat("é", model.TitleMaxLen)), "counted in characters")
	assert.ErrorIs(t, Title(""), ErrInvalidTitle)
	assert.ErrorIs(t, Title("  \t"), ErrInvalidTitle)
	assert.ErrorIs(t, Title(strings.Repeat("x", model.TitleMaxLen+1)), ErrInvalidTitle)
}

func TestDescription(t *testing.T) {
	assert.NoError(t, Description(""))
	assert.NoError(t, Description(strings.Repeat("x", model.DescriptionMaxLen)))
	assert.ErrorIs(t, Description(strings.Repeat("x", model.DescriptionMaxLen+1)), ErrInvalidDescription)
}

func TestPriority(t *testing.T) {
	for p := model.PriorityMin; p <= model.PriorityMax; p++ {
		assert.NoError(t, Priority(p))
	}
	assert.ErrorIs(t, Priority(0), ErrInvalidPriority)
	assert.ErrorIs(t, Priority(6), ErrInvalidPriority)
}

func TestDueDate(t *testing.T) {
	now := time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC)

	assert.NoError(t, DueDate(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), now), "today is allowed")
	assert.NoError(t, DueDate(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), now))
	assert.ErrorIs(t, DueDate(time.Date(2025, 1, 9, 23, 59, 0, 0, time.UTC), now), ErrInvalidDueDate)
	assert.ErrorIs(t, DueDate(time.Time{}, now), ErrInvalidDueDate)
}

func TestCreateRequest(t *testing.T) {
	valid := model.CreateTaskRequest{
		Title:    "Buy milk",
		Priority: 3,
		DueDate:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		UserID:   "u1",
	}
	assert.NoError(t, CreateRequest(valid))

	// Past dates pass; only the form checks the window.
	past := valid
	past.DueDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, CreateRequest(past))

	noTitle := valid
	noTitle.Title = ""
	assert.ErrorIs(t, CreateRequest(noTitle), ErrInvalidTitle)

	badPriority := valid
	badPriority.Priority = 9
	assert.ErrorIs(t, CreateRequest(badPriority), ErrInvalidPriority)

	noUser := valid
	noUser.UserID = ""
	assert.ErrorIs(t, CreateRequest(noUser), ErrMissingUser)

	noDue := valid
	noDue.DueDate = time.Time{}
	assert.ErrorIs(t, CreateRequest(noDue), ErrInvalidDueDate)
}

func TestChanges(t *testing.T) {
	assert.ErrorIs(t, Changes(model.TaskChanges{}), ErrNoChanges)

	title := "ok"
	assert.NoError(t, Changes(model.TaskChanges{Title: &title}))

	empty := ""
	assert.ErrorIs(t, Changes(model.TaskChanges{Title: &empty}), ErrInvalidTitle)

	p := 0
	assert.ErrorIs(t, Changes(model.TaskChanges{Priority: &p}), ErrInvalidPriority)

	long := strings.Repeat("d", model.DescriptionMaxLen+1)
	assert.ErrorIs(t, Changes(model.TaskChanges{Description: &long}), ErrInvalidDescription)

	done := true
	assert.NoError(t, Changes(model.TaskChanges{Completed: &done}))
}
