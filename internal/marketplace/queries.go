package marketplace

// DefaultQueries is the fixed list of keyword searches: a handful of broad
// Pokémon-card queries, some tagged gradedOnly to pick up the remote
// "graded" item-condition filter (LH_ItemCondition=2750).
var DefaultQueries = []Query{
	{Keywords: "pokemon card", GradedOnly: false},
	{Keywords: "pokemon kaart", GradedOnly: false},
	{Keywords: "pokemon graad", GradedOnly: true},
	{Keywords: "pokemon psa bgs cgc", GradedOnly: true},
}
