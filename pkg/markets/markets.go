// Package markets maps terse market codes to display labels.
package markets

// labels is fixed data. Adding a market is a change to this table only.
var labels = map[string]string{
	// Game lines
	"h2h":         "Moneyline",
	"spreads":     "Spread",
	"totals":      "Total",
	"team_totals": "Team Total",

	// Baseball
	"batter_hits":        "Batter Hits",
	"pitcher_strikeouts": "Pitcher Strikeouts",
	"pitcher_outs":       "Pitcher Outs",
	"batter_singles":     "Batter Singles",

	// Basketball
	"player_points":                  "Player Points",
	"player_assists":                 "Player Assists",
	"player_rebounds":                "Player Rebounds",
	"player_points_assists":          "Player Points + Assists",
	"player_points_rebounds":         "Player Points + Rebounds",
	"player_rebounds_assists":        "Player Rebounds + Assists",
	"player_points_rebounds_assists": "Player Points + Rebounds + Assists",

	// American football
	"player_pass_tds":                "Passing Touchdowns",
	"player_pass_yds":                "Passing Yards",
	"player_pass_completions":        "Pass Completions",
	"player_pass_attempts":           "Pass Attempts",
	"player_pass_interceptions":      "Interceptions Thrown",
	"player_pass_longest_completion": "Longest Completion",
	"player_rush_yds":                "Rushing Yards",
	"player_rush_attempts":           "Rush Attempts",
	"player_rush_longest":            "Longest Rush",
	"player_receptions":              "Receptions",
	"player_reception_yds":           "Receiving Yards",
	"player_reception_longest":       "Longest Reception",
	"player_kicking_points":          "Kicking Points",
	"player_field_goals":             "Field Goals",
	"player_tackles_assists":         "Tackles + Assists",
	"player_anytime_td":              "Anytime Touchdown",

	// Hockey
	"player_power_play_points": "Power Play Points",
	"player_shots_on_goal":     "Shots on Goal",
	"player_total_saves":       "Total Saves",
}

// Resolve returns the display label for a market code.
// Unknown codes are returned unchanged so new markets still render.
func Resolve(marketKey string) string {
	if label, ok := labels[marketKey]; ok {
		return label
	}
	return marketKey
}

// Known reports whether the market code has a label of its own
func Known(marketKey string) bool {
	_, ok := labels[marketKey]
	return ok
}
