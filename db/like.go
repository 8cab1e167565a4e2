package db

import "strings"

// LikeEscape is the ESCAPE clause matching ContainsPattern. '!' is used
// because a backslash literal is read differently by MySQL and PostgreSQL.
const LikeEscape = "ESCAPE '!'"

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern returns a LIKE pattern that matches term as a literal
// substring. Pair it with LikeEscape.
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(term) + "%"
}
