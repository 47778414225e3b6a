package models

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Logo Design":     "logo-design",
		"logo design":     "logo-design",
		"  Web   Dev  ":   "web-dev",
		"web-dev":         "web-dev",
		"Video\tEditing":  "video-editing",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestPortfolioStatusValid(t *testing.T) {
	assert.True(t, PortfolioPending.Valid())
	assert.True(t, PortfolioApproved.Valid())
	assert.True(t, PortfolioRejected.Valid())
	assert.False(t, PortfolioStatus("archived").Valid())
	assert.False(t, PortfolioStatus("").Valid())
}

func TestPortfolioMarshalJSON(t *testing.T) {
	p := PortfolioSubmission{
		ID:         uuid.New(),
		Profession: "Designer",
		Status:     PortfolioPending,
		Services:   datatypes.JSONSlice[Service]{{ID: uuid.New(), Name: "Logo Design"}},
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Designer", out["headline"])
	assert.Equal(t, "Designer", out["profession"])

	services := out["services"].([]any)
	require.Len(t, services, 1)
	svc := services[0].(map[string]any)
	assert.Equal(t, []any{}, svc["videos"])
	assert.Equal(t, []any{}, svc["pricing"])
}

func TestPortfolioMarshalJSONEmptyServices(t *testing.T) {
	raw, err := json.Marshal(&PortfolioSubmission{})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"services":[]`)
}

func TestPortfolioClone(t *testing.T) {
	owner := uuid.New()
	p := &PortfolioSubmission{
		UserID: &owner,
		Services: datatypes.JSONSlice[Service]{{
			Name:   "Logo Design",
			Videos: []Video{{ID: uuid.New(), URL: "/uploads/v.mp4"}},
		}},
	}

	c := p.Clone()
	c.Services[0].Videos = append(c.Services[0].Videos, Video{ID: uuid.New()})
	c.Services = append(c.Services, Service{Name: "Other"})
	*c.UserID = uuid.New()

	assert.Len(t, p.Services, 1)
	assert.Len(t, p.Services[0].Videos, 1)
	assert.Equal(t, owner, *p.UserID)
	assert.True(t, p.IsOwnedBy(owner))
}

func TestGenerateBookingCode(t *testing.T) {
	code := GenerateBookingCode()
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), code)
}

func TestFindService(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	services := []Service{
		{ID: first, Name: "Logo Design", Slug: "logo-design"},
		{ID: second, Name: "logo  design", Slug: "logo-design"},
	}

	assert.Equal(t, 0, FindService(services, "logo-design"))
	assert.Equal(t, 0, FindService(services, "Logo Design"))
	assert.Equal(t, 1, FindService(services, second.String()))
	assert.Equal(t, -1, FindService(services, uuid.NewString()))
	assert.Equal(t, -1, FindService(services, "web-dev"))
	assert.Equal(t, -1, FindService(services, "  "))
}
