package chart

import (
	"math/rand/v2"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// groupColors is the tableau palette without its first blue, which is kept
// for the all-students views.
var groupColors = []string{
	"#f58518", "#e45756", "#72b7b2", "#54a24b", "#eeca3b",
	"#b279a2", "#ff9da6", "#9d755d", "#bab0ac",
}

type obj = map[string]interface{}

type Options struct {
	Title   string
	GroupBy string
	// Seed makes the violin jitter reproducible.
	Seed uint64
}

// Chart is a Vega-Lite specification ready to be embedded.
type Chart struct {
	Title   string
	GroupBy string
	Spec    obj
}

// Build assembles the grade distribution chart, and the assignment views
// when scores are given.
func Build(rows []models.PreparedGradeRow, scores []models.AssignmentScoreRecord, opts Options) *Chart {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	points := Points(rows, rng)
	groupBy := ResolveGroupBy(opts.GroupBy, points, scores)

	var unposted []float64
	for _, p := range points {
		if p.GradeStatus == StatusUnposted {
			unposted = append(unposted, p.PercentGrade)
		}
	}
	extent := BinExtent(unposted)

	overview := []interface{}{histogram(extent), strip(extent), boxPlot(extent)}
	if groupBy == config.GroupBySection {
		overview = append(overview, sectionBoxPlot(extent, SectionOrder(points)))
	}

	top := []interface{}{obj{
		"vconcat": overview,
		"spacing": 0,
		"title": obj{
			"text": "Grade Distribution " + opts.Title,
			"subtitle": []string{
				"Hover near a point to view student info.",
				"Hover over the box to view exact summary statistics.",
				"Changes in the dropdown menus below only affect this chart",
				"",
			},
			"anchor": "start",
			"dx":     35,
		},
		"resolve": obj{"scale": obj{"x": "shared"}},
		"transform": []interface{}{
			obj{"filter": obj{"and": []interface{}{obj{"param": "percentType"}, obj{"param": "gradeStatus"}}}},
		},
	}}

	sections := []interface{}{obj{"hconcat": top, "spacing": 50}}
	datasets := obj{"grades": points}

	if len(scores) > 0 {
		datasets["assignments"] = scores
		order := assignmentOrder(scores)
		sections[0] = obj{"hconcat": append(top, studentLines(order)), "spacing": 50}
		sections = append(sections, assignmentDistributions(scores, order, groupBy))
	}

	spec := obj{
		"$schema":  vegaLiteSchema,
		"datasets": datasets,
		"params": []interface{}{obj{
			"name":  "search",
			"value": "",
			"bind":  obj{"input": "search", "placeholder": "Search name", "name": " "},
		}},
		"vconcat": sections,
		"spacing": 40,
		"resolve": obj{"scale": obj{"color": "independent"}},
		"config":  obj{"view": obj{"stroke": nil}},
	}
	return &Chart{Title: opts.Title, GroupBy: groupBy, Spec: spec}
}

func axisValues(extent [2]float64) []int {
	var values []int
	for v := int(extent[0]); v <= int(extent[1]); v += 5 {
		values = append(values, v)
	}
	return values
}

func gradesData() obj { return obj{"name": "grades"} }

func histogram(extent [2]float64) obj {
	return obj{
		"data":   gradesData(),
		"height": 180,
		"width":  355,
		"mark":   "bar",
		"params": []interface{}{
			selectParam("percentType", "Percent Type", []string{PercentRounded, PercentExact}, PercentExact),
			selectParam("gradeStatus", "Grade Status", []string{StatusPosted, StatusUnposted}, StatusUnposted),
		},
		"encoding": obj{
			"x": obj{
				"field": "Percent Grade",
				"bin":   obj{"extent": extent, "step": 2.5},
				"title": "",
				"axis":  obj{"labels": false, "values": axisValues(extent)},
			},
			"y": obj{"aggregate": "count", "title": "Student Count"},
		},
	}
}

func selectParam(name, field string, options []string, initial string) obj {
	return obj{
		"name":   name,
		"select": obj{"type": "point", "fields": []string{field}},
		"bind":   obj{"input": "select", "options": options, "name": " "},
		"value":  []interface{}{obj{field: initial}},
	}
}

func strip(extent [2]float64) obj {
	return obj{
		"data":   gradesData(),
		"height": 70,
		"width":  355,
		"mark":   obj{"type": "point", "size": 20, "filled": true},
		"params": []interface{}{obj{
			"name":   "hover",
			"select": obj{"type": "point", "on": "mouseover", "nearest": true, "clear": "mouseout"},
		}},
		"transform": []interface{}{obj{"filter": "test(regexp(search, 'i'), datum.Name)"}},
		"encoding": obj{
			"x": obj{
				"field": "Percent Grade",
				"type":  "quantitative",
				"title": "",
				"scale": obj{"domain": extent, "nice": false},
				"axis":  obj{"labels": false, "ticks": false, "grid": false, "domain": false},
			},
			"y": obj{
				"field": "violin_cloud",
				"type":  "quantitative",
				"title": "",
				"scale": obj{"padding": 5, "domain": []int{-1, 1}},
				"axis":  nil,
			},
			"color": obj{
				"condition": obj{"param": "hover", "empty": false, "value": "maroon"},
				"value":     "#4c78a8",
			},
			"tooltip": []interface{}{
				obj{"field": "Name", "type": "nominal"},
				obj{"field": "Student Number", "type": "nominal"},
				obj{"field": "Percent Grade", "type": "quantitative"},
				obj{"field": "Percentile", "type": "quantitative"},
			},
		},
	}
}

// boxLayers draws a box plot with a mean diamond and an invisible bar that
// carries the summary tooltip.
func boxLayers(field string, x obj, y obj, color obj, groupBy []string) []interface{} {
	box := obj{
		"mark": obj{"type": "boxplot", "outliers": obj{"opacity": 0}, "median": obj{"color": "black"}},
		"encoding": obj{
			"x": x,
		},
	}
	mean := obj{
		"mark": obj{"type": "point", "size": 25, "shape": "diamond", "filled": true, "color": "#353535"},
		"encoding": obj{
			"x": obj{"field": field, "aggregate": "mean", "type": "quantitative", "scale": obj{"zero": false}},
		},
	}
	tooltip := obj{
		"transform": []interface{}{obj{
			"aggregate": []interface{}{
				obj{"op": "min", "field": field, "as": "min"},
				obj{"op": "q1", "field": field, "as": "q1"},
				obj{"op": "mean", "field": field, "as": "mean"},
				obj{"op": "median", "field": field, "as": "median"},
				obj{"op": "q3", "field": field, "as": "q3"},
				obj{"op": "max", "field": field, "as": "max"},
				obj{"op": "count", "as": "count"},
			},
			"groupby": groupBy,
		}},
		"mark": obj{"type": "bar", "opacity": 0},
		"encoding": obj{
			"x":  obj{"field": "q1", "type": "quantitative"},
			"x2": obj{"field": "q3"},
			"tooltip": []interface{}{
				obj{"field": "min", "type": "quantitative", "format": ".1f"},
				obj{"field": "q1", "type": "quantitative", "format": ".1f"},
				obj{"field": "mean", "type": "quantitative", "format": ".1f"},
				obj{"field": "median", "type": "quantitative", "format": ".1f"},
				obj{"field": "q3", "type": "quantitative", "format": ".1f"},
				obj{"field": "max", "type": "quantitative", "format": ".1f"},
				obj{"field": "count", "type": "quantitative"},
			},
		},
	}
	if y != nil {
		for _, layer := range []obj{box, mean, tooltip} {
			layer["encoding"].(obj)["y"] = y
		}
	}
	if color != nil {
		box["encoding"].(obj)["color"] = color
	}
	return []interface{}{box, mean, tooltip}
}

func boxPlot(extent [2]float64) obj {
	x := obj{
		"field": "Percent Grade",
		"type":  "quantitative",
		"title": "Final Percent Grade",
		"scale": obj{"domain": extent, "nice": false},
		"axis":  obj{"values": axisValues(extent)},
	}
	return obj{
		"data":   gradesData(),
		"width":  355,
		"height": 20,
		"layer":  boxLayers("Percent Grade", x, nil, nil, nil),
	}
}

func groupEncoding(field string, order []string) (obj, obj) {
	reversed := make([]string, len(order))
	for i, name := range order {
		reversed[len(order)-1-i] = name
	}
	y := obj{"field": field, "type": "nominal", "sort": order, "title": "", "axis": obj{"orient": "right"}}
	color := obj{
		"field":  field,
		"type":   "nominal",
		"sort":   reversed,
		"legend": nil,
		"scale":  obj{"range": groupColors},
	}
	return y, color
}

func sectionBoxPlot(extent [2]float64, order []string) obj {
	x := obj{
		"field": "Percent Grade",
		"type":  "quantitative",
		"title": "Final Percent Grade",
		"scale": obj{"domain": extent, "nice": false},
		"axis":  obj{"values": axisValues(extent)},
	}
	y, color := groupEncoding("Section", order)
	return obj{
		"data":  gradesData(),
		"width": 355,
		"title": obj{"text": []string{"", "Comparison Between Sections"}, "anchor": "start"},
		"layer": boxLayers("Percent Grade", x, y, color, []string{"Section"}),
	}
}

func assignmentOrder(scores []models.AssignmentScoreRecord) []string {
	var order []string
	seen := map[string]bool{}
	for _, s := range scores {
		if !seen[s.Assignment] {
			seen[s.Assignment] = true
			order = append(order, s.Assignment)
		}
	}
	return order
}

func studentLines(order []string) obj {
	return obj{
		"data":   obj{"name": "assignments"},
		"width":  max(300, len(order)*40),
		"height": 300,
		"title":  obj{"text": []string{"Assignment Scores", ""}, "anchor": "start"},
		"transform": []interface{}{
			obj{"filter": "test(regexp(search, 'i'), datum.name)"},
			obj{"joinaggregate": []interface{}{obj{"op": "mean", "field": "score", "as": "mean_score"}}, "groupby": []string{"name"}},
		},
		"mark": obj{"type": "line", "point": true, "opacity": 0.4},
		"encoding": obj{
			"x":      obj{"field": "assignment", "type": "nominal", "title": "", "sort": order},
			"y":      obj{"field": "score", "type": "quantitative", "title": "Assignment Score (%)", "scale": obj{"zero": false}},
			"detail": obj{"field": "name", "type": "nominal"},
			"color": obj{
				"field": "mean_score",
				"type":  "quantitative",
				"scale": obj{"scheme": "cividis", "reverse": true},
				"title": "Mean Score",
			},
			"tooltip": []interface{}{
				obj{"field": "name", "type": "nominal"},
				obj{"field": "student_number", "type": "nominal"},
				obj{"field": "assignment", "type": "nominal"},
				obj{"field": "score", "type": "quantitative"},
			},
		},
	}
}

func assignmentDistributions(scores []models.AssignmentScoreRecord, order []string, groupBy string) obj {
	var values []float64
	for _, s := range scores {
		if s.Score != nil {
			values = append(values, *s.Score)
		}
	}
	extent := BinExtent(values)
	x := obj{
		"field": "score",
		"type":  "quantitative",
		"title": "Score",
		"scale": obj{"domain": extent, "nice": false, "zero": false},
	}
	facet := obj{"field": "assignment", "type": "nominal", "title": "", "sort": order, "header": obj{"labelPadding": 0}}

	height := 80
	var groupOrder []string
	field := ""
	switch groupBy {
	case config.GroupBySection:
		field = "section"
		groups := map[string][]float64{}
		for _, s := range scores {
			if s.Score != nil {
				groups[s.Section] = append(groups[s.Section], *s.Score)
			}
		}
		groupOrder = GroupOrder(groups)
	case config.GroupByGrader:
		field = "grader"
		groupOrder = GraderOrder(scores)
	}
	height = max(height, len(groupOrder)*20)

	hist := obj{
		"data":    obj{"name": "assignments"},
		"facet":   facet,
		"columns": 4,
		"title":   obj{"text": []string{"Assignment Distributions", ""}, "anchor": "start"},
		"spec": obj{
			"width":  200,
			"height": height,
			"layer": append([]interface{}{obj{
				"mark": "bar",
				"encoding": obj{
					"x": obj{"field": "score", "bin": obj{"extent": extent, "step": 2.5}, "axis": obj{"offset": 20}, "title": ""},
					"y": obj{"aggregate": "count", "title": "Student Count"},
				},
			}}, boxLayers("score", x, obj{"value": height + 10}, nil, nil)...),
		},
	}
	if field == "" {
		return hist
	}

	y, color := groupEncoding(field, groupOrder)
	grouped := obj{
		"data":    obj{"name": "assignments"},
		"facet":   facet,
		"columns": 4,
		"title":   obj{"text": []string{"Comparison Between " + groupBy + "s", ""}, "anchor": "start"},
		"spec": obj{
			"width":  200,
			"height": height,
			"layer":  boxLayers("score", x, y, color, []string{field}),
		},
	}
	return obj{
		"hconcat": []interface{}{hist, grouped},
		"spacing": 40,
		"resolve": obj{"scale": obj{"color": "independent"}},
	}
}
