package resolve

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/impact-report/internal/model"
)

func surveys(names ...string) []model.SurveyRecord {
	out := make([]model.SurveyRecord, len(names))
	for i, n := range names {
		out[i] = model.SurveyRecord{
			CompanyName: n,
			ContactName: "Contact " + n,
			Row:         i + 2,
			Origin:      model.OriginResolved,
		}
	}
	return out
}

func profiles(names ...string) []model.CompanyImpactProfile {
	out := make([]model.CompanyImpactProfile, len(names))
	for i, n := range names {
		out[i] = model.CompanyImpactProfile{CompanyName: n, Sheet: n, Origin: model.OriginResolved}
	}
	return out
}

func TestResolve_ExactMatchIdentity(t *testing.T) {
	t.Parallel()
	s := surveys("Globex", "Acme")
	p := profiles("Acme", "Globex")

	res, err := Resolve("Acme", s, p)
	require.NoError(t, err)

	assert.Equal(t, s[1], res.Context.Survey)
	assert.Equal(t, p[0], res.Context.Profile)
	assert.Equal(t, "Acme", res.Context.CompanyName)
	assert.Equal(t, MatchExact, res.SurveyMatch)
	assert.Equal(t, MatchExact, res.ProfileMatch)
	assert.False(t, res.SurveyFallback)
	assert.False(t, res.ProfileFallback)
	assert.Empty(t, res.Warnings())
}

func TestResolve_ExactBeatsContainment(t *testing.T) {
	t.Parallel()
	res, err := Resolve("acme", surveys("Acme Corp", "ACME"), profiles("Acme Corp"))
	require.NoError(t, err)
	assert.Equal(t, "ACME", res.Context.Survey.CompanyName)
	assert.Equal(t, MatchExact, res.SurveyMatch)
	assert.Equal(t, MatchContains, res.ProfileMatch)
}

func TestResolve_LowercasePartial(t *testing.T) {
	t.Parallel()
	res, err := Resolve("acme", surveys("Acme Corp"), profiles("Acme Corp"))
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", res.Context.CompanyName)
	assert.Equal(t, "Acme Corp", res.Context.Survey.CompanyName)
	assert.Equal(t, MatchContains, res.SurveyMatch)
	assert.Equal(t, MatchContains, res.ProfileMatch)
}

func TestResolve_TotalMissIsDoubleSynthetic(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	r := Resolver{Now: func() time.Time { return now }}

	res, err := r.Resolve("Initech", surveys("Acme"), profiles("Globex"))
	require.NoError(t, err)

	assert.True(t, res.SurveyFallback)
	assert.True(t, res.ProfileFallback)
	assert.Equal(t, MatchNone, res.SurveyMatch)
	assert.Equal(t, MatchNone, res.ProfileMatch)
	assert.Equal(t, "Initech", res.Context.CompanyName)
	assert.Equal(t, model.OriginSynthesized, res.Context.Profile.Origin)
	assert.Empty(t, res.Context.Profile.Mechanisms)
	assert.Equal(t, model.OriginSynthesized, res.Context.Survey.Origin)
	assert.Equal(t, model.SynthesizedContact, res.Context.Survey.ContactName)
	assert.Equal(t, now, res.Context.Survey.Timestamp)
	assert.True(t, res.Context.HasFallback())
	assert.Len(t, res.Warnings(), 2)
	assert.NoError(t, res.Context.Validate())
}

func TestResolve_EmptyStores(t *testing.T) {
	t.Parallel()
	res, err := Resolve("Acme", nil, nil)
	require.NoError(t, err)
	assert.True(t, res.SurveyFallback)
	assert.True(t, res.ProfileFallback)
}

func TestResolve_CrossReferenceSurveyFromProfile(t *testing.T) {
	t.Parallel()
	// Query only hits the profile; the survey is found through the
	// profile's stored name.
	res, err := Resolve("Company B", surveys("Sparkinity"), profiles("Company B/Sparkinity"))
	require.NoError(t, err)

	assert.Equal(t, "Company B/Sparkinity", res.Context.CompanyName)
	assert.Equal(t, "Sparkinity", res.Context.Survey.CompanyName)
	assert.Equal(t, MatchContains, res.ProfileMatch)
	assert.Equal(t, MatchCrossRef, res.SurveyMatch)
	assert.False(t, res.SurveyFallback)
}

func TestResolve_CrossReferenceProfileFromSurvey(t *testing.T) {
	t.Parallel()
	res, err := Resolve("Sparkinity Ltd", surveys("Sparkinity Ltd (Company B)"), profiles("Sparkinity"))
	require.NoError(t, err)
	// "sparkinity ltd" contains "sparkinity", so the profile matches directly.
	assert.Equal(t, MatchContains, res.ProfileMatch)

	res, err = Resolve("Company B", surveys("Company B - Sparkinity Ltd"), profiles("Sparkinity"))
	require.NoError(t, err)
	assert.Equal(t, MatchCrossRef, res.ProfileMatch)
	assert.Equal(t, "Sparkinity", res.Context.CompanyName)
}

func TestResolve_SurveyFallbackKeyedByProfileName(t *testing.T) {
	t.Parallel()
	res, err := Resolve("globex", surveys("Acme"), profiles("Globex Industries"))
	require.NoError(t, err)

	assert.True(t, res.SurveyFallback)
	assert.False(t, res.ProfileFallback)
	assert.Equal(t, "Globex Industries", res.Context.Survey.CompanyName)
	assert.Equal(t, "Globex Industries", res.Context.CompanyName)
}

func TestResolve_MismatchAborts(t *testing.T) {
	t.Parallel()
	// "co" is contained in both stored names, which do not contain each other.
	_, err := Resolve("co", surveys("Coca"), profiles("Taco"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrValidation))
}

func TestResolve_ContainmentFalsePositivePreserved(t *testing.T) {
	t.Parallel()
	res, err := Resolve("Co", surveys("Coca"), profiles("Coca"))
	require.NoError(t, err)
	assert.Equal(t, "Coca", res.Context.CompanyName)
}

func TestResolve_EmptyQuery(t *testing.T) {
	t.Parallel()
	_, err := Resolve("  ", surveys("Acme"), profiles("Acme"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrValidation))
}

func TestResolve_EmptyStoredNamesNeverMatch(t *testing.T) {
	t.Parallel()
	res, err := Resolve("Acme", surveys(""), profiles("", "Acme"))
	require.NoError(t, err)
	assert.True(t, res.SurveyFallback)
	assert.Equal(t, "Acme", res.Context.Profile.CompanyName)
}

func TestFind(t *testing.T) {
	t.Parallel()
	names := []string{"École Verte", "ACME"}

	i, kind := find("ÉCOLE VERTE", names)
	assert.Equal(t, 0, i, "unicode case folding")
	assert.Equal(t, MatchExact, kind)

	i, kind = find("acme widgets", names)
	assert.Equal(t, 1, i)
	assert.Equal(t, MatchContains, kind)

	i, kind = find("", names)
	assert.Equal(t, -1, i)
	assert.Equal(t, MatchNone, kind)
}
