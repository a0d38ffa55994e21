package retention

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetention_Ratio(t *testing.T) {
	t.Parallel()

	require.Nil(t, Ratio(50, 0))
	require.Nil(t, Ratio(0, 0))
	require.Nil(t, Ratio(math.Inf(1), 1))

	got := Ratio(50, 200)
	require.NotNil(t, got)
	require.Equal(t, 0.25, *got)
}

func TestRetention_Compute_Performance(t *testing.T) {
	t.Parallel()

	events := []Event{
		{
			Entity: "a", PostID: "p1", Time: day(2024, time.January, 3), Mentions: 1,
			Groups:     []string{"Acme"},
			Attributes: []string{"", "micro"},
			Metrics:    Metrics{Engagements: 50, VideoViews: 100, ReachForEng: 0},
		},
		{
			Entity: "a", PostID: "p2", Time: day(2024, time.January, 9), Mentions: 2,
			Groups:     []string{"Acme"},
			Attributes: []string{"Alice", "macro"},
			Metrics:    Metrics{Engagements: 30, VideoViews: 0, ReachForEng: 0},
		},
		{
			// Same post seen twice: counted once in the portfolio.
			Entity: "a", PostID: "p2", Time: day(2024, time.January, 9), Mentions: 1,
			Groups: []string{"Acme"},
		},
		{
			Entity: "a", PostID: "p3", Time: day(2024, time.July, 9), Mentions: 1,
			Groups:  []string{"Beta"},
			Metrics: Metrics{Engagements: 10, ReachForEng: 100},
		},
		{
			Entity: "b", PostID: "p4", Time: day(2024, time.July, 9), Mentions: 1,
			Groups:  []string{""},
			Metrics: Metrics{Engagements: 10, ReachForEng: 100},
		},
	}

	res, err := Compute(Config{
		Timeframe:   TimeframeHalfYear,
		GroupBy:     []string{"group"},
		Performance: &PerformanceConfig{Attributes: []string{"influencer_name", "tiers"}},
	}, events)
	require.NoError(t, err)

	// b has no group value so it only appears in the overall scope.
	require.Len(t, res.Performance, 2)

	acme := res.Performance[0]
	require.Equal(t, []string{"Acme"}, acme.Groups)
	require.Equal(t, "a", acme.Entity)
	require.Equal(t, []string{"Alice", "micro"}, acme.Attributes)
	require.Equal(t, 4.0, acme.Mentions)
	require.Equal(t, 4.0, acme.Frequency)
	require.Equal(t, 80.0, acme.Engagements)
	require.Equal(t, 180.0, acme.TotalInfluence)
	require.Nil(t, acme.EngagementRate, "reach 0 with engagements 50 must be undefined")
	require.NotNil(t, acme.EngagementPerView)
	require.Equal(t, 0.8, *acme.EngagementPerView)
	require.NotNil(t, acme.InfluencePerMention)
	require.Equal(t, 45.0, *acme.InfluencePerMention)
	require.Equal(t, []int{2, 0}, acme.Portfolio)

	beta := res.Performance[1]
	require.Equal(t, []string{"Beta"}, beta.Groups)
	require.NotNil(t, beta.EngagementRate)
	require.Equal(t, 0.1, *beta.EngagementRate)
	require.Nil(t, beta.EngagementPerView)
	require.Equal(t, []int{0, 1}, beta.Portfolio)
}

func TestRetention_Compute_PerformanceWithoutGroups(t *testing.T) {
	t.Parallel()

	events := []Event{
		{Entity: "b", Time: day(2023, time.March, 1), Mentions: 1, Metrics: Metrics{VideoViews: 10}},
		{Entity: "a", Time: day(2024, time.March, 1), Mentions: 1, Metrics: Metrics{VideoViews: 10}},
		{Entity: "a", Time: day(2024, time.March, 2), Mentions: 1},
	}
	res, err := Compute(Config{Timeframe: TimeframeYear, Performance: &PerformanceConfig{}}, events)
	require.NoError(t, err)
	require.Len(t, res.Performance, 2)

	require.Equal(t, "a", res.Performance[0].Entity)
	require.Nil(t, res.Performance[0].Groups)
	// Without post ids every event counts.
	require.Equal(t, []int{0, 2}, res.Performance[0].Portfolio)
	require.Equal(t, "b", res.Performance[1].Entity)
	require.Equal(t, []int{1, 0}, res.Performance[1].Portfolio)
}

func TestRetention_Compute_PerformanceSkipsRollUps(t *testing.T) {
	t.Parallel()

	post := func(entity, id string, rollUp bool) Event {
		return Event{
			Entity: entity, PostID: id, Time: day(2024, time.February, 1), Mentions: 1,
			Groups:     []string{"Acme"},
			Attributes: []string{"makeup"},
			Metrics:    Metrics{Engagements: 100, ReachForEng: 1000},
			RollUp:     rollUp,
		}
	}
	events := []Event{
		post("a", "p1", false),
		post("a", "p1", true),
		// Only seen through a roll-up row.
		post("c", "p9", true),
	}

	res, err := Compute(Config{
		Timeframe:   TimeframeQuarter,
		GroupBy:     []string{"group"},
		Performance: &PerformanceConfig{Attributes: []string{"category"}},
	}, events)
	require.NoError(t, err)

	// Roll-ups still mark presence.
	require.Equal(t, []int{2}, res.Overall.Total)
	require.Equal(t, []int{2}, res.Groups[0].Total)

	require.Len(t, res.Performance, 1)
	a := res.Performance[0]
	require.Equal(t, "a", a.Entity)
	require.Equal(t, 1.0, a.Mentions)
	require.Equal(t, 100.0, a.Engagements)
	require.Equal(t, []int{1}, a.Portfolio)
}
