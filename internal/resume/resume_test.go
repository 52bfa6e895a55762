package resume

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIsValid(t *testing.T) {
	d := Sample()
	require.NoError(t, Validate(d))
	assert.Equal(t, "Alex Morgan", d.Personal.FullName)
	assert.Len(t, d.Experience, 3)
	assert.True(t, d.Experience[0].Current)
	assert.Len(t, d.Skills, 7)
}

func TestSampleIsStable(t *testing.T) {
	a, b := Sample(), Sample()
	assert.Equal(t, a, b)
	assert.Equal(t, "3", a.Experience[2].ID)
	assert.Empty(t, a.Experience[2].Company)

	// 调用方修改副本不影响下一次取样。
	a.Skills[0].Name = "Sketch"
	assert.Equal(t, "Figma", Sample().Skills[0].Name)
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	d := Sample()
	d.Skills = append(d.Skills, Skill{ID: "1", Name: "Dup", Level: 2})

	err := Validate(d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.NotEmpty(t, verr.Fields)
	assert.Equal(t, "Skills", verr.Fields[0].Field)
	assert.Equal(t, "unique", verr.Fields[0].Rule)
}

func TestValidateRejectsEmptyID(t *testing.T) {
	d := Data{Links: []Link{{Label: "x"}}}
	err := Validate(d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateAllowsEmptyCollections(t *testing.T) {
	assert.NoError(t, Validate(Data{}))
}

func TestNormalizeClampsSkillLevels(t *testing.T) {
	d := Data{Skills: []Skill{{ID: "a", Level: 0}, {ID: "b", Level: 9}, {ID: "c", Level: 3}}}
	got := Normalize(d)

	assert.Equal(t, 1, got.Skills[0].Level)
	assert.Equal(t, 5, got.Skills[1].Level)
	assert.Equal(t, 3, got.Skills[2].Level)
	assert.Equal(t, 0, d.Skills[0].Level, "input must not be mutated")
}

func TestValidateJSON(t *testing.T) {
	raw, err := json.Marshal(Sample())
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(raw))

	err = ValidateJSON([]byte(`{"personal":{"fullName":1}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.NotEmpty(t, serr.Fields)
}

func TestSessionUpdatesAreImmutable(t *testing.T) {
	s := NewSession(Sample())
	before := s.Snapshot()

	s.AddSkill(Skill{ID: "go", Name: "Go", Level: 4})
	after := s.Snapshot()

	assert.Len(t, before.Skills, 7)
	assert.Len(t, after.Skills, 8)

	after.Skills[0].Name = "mutated"
	assert.Equal(t, "Figma", s.Snapshot().Skills[0].Name)
}

func TestSessionUpdateAndRemoveByID(t *testing.T) {
	s := NewSession(Sample())

	require.NoError(t, s.UpdateExperience(Experience{ID: "2", Company: "Renamed"}))
	assert.Equal(t, "Renamed", s.Snapshot().Experience[1].Company)

	require.NoError(t, s.RemoveEducation("1"))
	assert.Len(t, s.Snapshot().Education, 1)

	assert.ErrorIs(t, s.RemoveLink("missing"), ErrNotFound)
	assert.ErrorIs(t, s.UpdateSkill(Skill{ID: "missing"}), ErrNotFound)
	assert.Len(t, s.Snapshot().Links, 2)
}

func TestSessionConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	s := NewSession(Data{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Replace(Data{
				Personal: Personal{FullName: "n"},
				Skills:   []Skill{{ID: "a"}, {ID: "b"}},
			})
			s.Replace(Data{})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := s.Snapshot()
				if snap.Personal.FullName == "n" {
					assert.Len(t, snap.Skills, 2)
				} else {
					assert.Empty(t, snap.Skills)
				}
			}
		}()
	}
	wg.Wait()
}
