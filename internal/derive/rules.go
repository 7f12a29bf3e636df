package derive

import "time"

// valueRule maps one exact categorical value to a label. Rules are
// evaluated in declaration order, first match wins; a value matching no
// rule falls through to the stage's fallback.
type valueRule struct {
	Match string
	Label string
}

var prodLineRules = []valueRule{
	{"Camping Equipment", "Camping Eqpt"},
	{"Golf Equipment", "Golf Eqpt"},
	{"Mountaineering Equipment", "Mountain Eqpt"},
	{"Personal Accessories", "Personal Acces"},
	{"Outdoor Protection", "Outdoor Prot"},
}

// prodLine2Rules is the alternate grouping: Outdoor Protection merges
// into Personal Accessories, everything else matches prodLineRules.
var prodLine2Rules = []valueRule{
	{"Camping Equipment", "Camping Eqpt"},
	{"Golf Equipment", "Golf Eqpt"},
	{"Mountaineering Equipment", "Mountain Eqpt"},
	{"Personal Accessories", "Personal Acces"},
	{"Outdoor Protection", "Personal Acces"},
}

var regionRules = []valueRule{
	{"United Kingdom", "West Europe"},
	{"France", "West Europe"},
	{"Spain", "West Europe"},
	{"Netherlands", "West Europe"},
	{"Belgium", "West Europe"},
	{"Switzerland", "West Europe"},
	{"Germany", "East Europe"},
	{"Italy", "East Europe"},
	{"Finland", "East Europe"},
	{"Austria", "East Europe"},
	{"Sweden", "East Europe"},
	{"Denmark", "East Europe"},
}

// dateWindow buckets dates in [From, To], inclusive on both ends. The
// window edges are load-bearing: an off-by-one-day error silently
// misclassifies fiscal boundaries.
type dateWindow struct {
	From  time.Time
	To    time.Time
	Label string
}

func window(from, to, label string) dateWindow {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		panic(err)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		panic(err)
	}
	return dateWindow{From: f, To: t, Label: label}
}

// Financial years run July 1 through June 30.
var finYearWindows = []dateWindow{
	window("2004-07-01", "2005-06-30", "FY_04_05"),
	window("2005-07-01", "2006-06-30", "FY_05_06"),
	window("2006-07-01", "2007-06-30", "FY_06_07"),
}

// All fifteen calendar quarters covered by the dataset.
var quarterAllWindows = []dateWindow{
	window("2004-01-01", "2004-03-31", "04_Q1"),
	window("2004-04-01", "2004-06-30", "04_Q2"),
	window("2004-07-01", "2004-09-30", "04_Q3"),
	window("2004-10-01", "2004-12-31", "04_Q4"),
	window("2005-01-01", "2005-03-31", "05_Q1"),
	window("2005-04-01", "2005-06-30", "05_Q2"),
	window("2005-07-01", "2005-09-30", "05_Q3"),
	window("2005-10-01", "2005-12-31", "05_Q4"),
	window("2006-01-01", "2006-03-31", "06_Q1"),
	window("2006-04-01", "2006-06-30", "06_Q2"),
	window("2006-07-01", "2006-09-30", "06_Q3"),
	window("2006-10-01", "2006-12-31", "06_Q4"),
	window("2007-01-01", "2007-03-31", "07_Q1"),
	window("2007-04-01", "2007-06-30", "07_Q2"),
	window("2007-07-01", "2007-09-30", "07_Q3"),
}

// The twelve quarters inside the three financial years.
var quarterSelWindows = []dateWindow{
	window("2004-07-01", "2004-09-30", "04_Q3"),
	window("2004-10-01", "2004-12-31", "04_Q4"),
	window("2005-01-01", "2005-03-31", "05_Q1"),
	window("2005-04-01", "2005-06-30", "05_Q2"),
	window("2005-07-01", "2005-09-30", "05_Q3"),
	window("2005-10-01", "2005-12-31", "05_Q4"),
	window("2006-01-01", "2006-03-31", "06_Q1"),
	window("2006-04-01", "2006-06-30", "06_Q2"),
	window("2006-07-01", "2006-09-30", "06_Q3"),
	window("2006-10-01", "2006-12-31", "06_Q4"),
	window("2007-01-01", "2007-03-31", "07_Q1"),
	window("2007-04-01", "2007-06-30", "07_Q2"),
}

func matchValue(rules []valueRule, v string) (string, bool) {
	for _, r := range rules {
		if r.Match == v {
			return r.Label, true
		}
	}
	return "", false
}

func matchWindow(windows []dateWindow, d time.Time) (string, bool) {
	for _, w := range windows {
		if !d.Before(w.From) && !d.After(w.To) {
			return w.Label, true
		}
	}
	return "", false
}
