package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

// SetupValues holds the answers of the setup form.
type SetupValues struct {
	Creator    string
	Days       int
	Theme      string
	Similarity string
}

// SetupValuesFrom seeds the form with the current config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Creator:    cfg.General.Creator,
		Days:       cfg.General.DefaultDays,
		Theme:      cfg.Appearance.Theme,
		Similarity: strconv.FormatFloat(cfg.Thresholds.Similarity, 'f', 2, 64),
	}
}

// Apply writes the answers onto cfg. Invalid similarity input keeps the
// current threshold; the form validates it before this point.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	cfg.General.Creator = v.Creator
	if v.Days > 0 {
		cfg.General.DefaultDays = v.Days
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	if s, err := parseSimilarity(v.Similarity); err == nil {
		cfg.Thresholds.Similarity = s
	}
	return cfg
}

func parseSimilarity(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f <= 0 || f > 1 {
		return 0, fmt.Errorf("similarity must be in (0, 1], got %v", f)
	}
	return f, nil
}

// NewSetupForm builds the first-run form. The creator question is skipped
// when the store holds no creators yet.
func NewSetupForm(creators []string, vals *SetupValues) *huh.Form {
	var fields []huh.Field

	if len(creators) > 0 {
		opts := []huh.Option[string]{huh.NewOption("(ask each time)", "")}
		for _, c := range creators {
			opts = append(opts, huh.NewOption(c, c))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Default creator").
			Description(fmt.Sprintf("%d creators found in the store.", len(creators))).
			Options(opts...).
			Value(&vals.Creator))
	}

	fields = append(fields,
		huh.NewSelect[int]().
			Title("Default time range").
			Options(
				huh.NewOption("7 days", 7),
				huh.NewOption("30 days", 30),
				huh.NewOption("90 days", 90),
			).
			Value(&vals.Days),

		huh.NewSelect[string]().
			Title("Color theme").
			Options(huh.NewOptions(theme.Names()...)...).
			Value(&vals.Theme),

		huh.NewInput().
			Title("Question similarity threshold").
			Description("Questions at least this similar share a cluster (0-1).").
			Validate(func(s string) error {
				_, err := parseSimilarity(s)
				return err
			}).
			Value(&vals.Similarity),
	)

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula())
}
