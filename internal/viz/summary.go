package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/dynrec/internal/detect"
	"github.com/san-kum/dynrec/internal/pipeline"
)

func row(label, value string) string {
	return MetricLabel.Render(fmt.Sprintf("%-18s", label)) + MetricValue.Render(value)
}

// Summary renders the parameters and findings of a pipeline run as a panel.
func Summary(title string, res *pipeline.Result) string {
	var lines []string
	lines = append(lines, Title.Render(title), "")

	emb := res.Embedded
	lines = append(lines,
		row("points", fmt.Sprintf("%d", emb.Len())),
		row("embedding", fmt.Sprintf("m=%d tau=%d", emb.M, emb.Tau)),
		row("epsilon", fmt.Sprintf("%.5g", res.Epsilon)),
		row("density", fmt.Sprintf("%.4f", res.Density)),
	)
	if res.Calibration != nil {
		lines = append(lines, row("search rounds", fmt.Sprintf("%d", res.Calibration.Iterations)))
	}
	lines = append(lines,
		row("determinism", fmt.Sprintf("%.3f", res.RQA.Determinism)),
		row("laminarity", fmt.Sprintf("%.3f", res.RQA.Laminarity)),
		row("windows", fmt.Sprintf("%d x %d (step %d)", res.Fisher.Len(), res.Fisher.WindowSize, res.Fisher.WindowIncrement)),
		row("band", res.Band.String()),
	)

	lines = append(lines, "")
	if len(res.Intervals) == 0 {
		lines = append(lines, StatusOK.Render("no samples outside the band"))
	} else {
		lines = append(lines, StatusWarn.Render(fmt.Sprintf("%d excursions outside the band", len(res.Intervals))))
		for _, iv := range res.Intervals {
			lines = append(lines, "  "+Interval(iv))
		}
	}

	if len(res.Summary) > 0 {
		lines = append(lines, "")
		keys := make([]string, 0, len(res.Summary))
		for k := range res.Summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, row(k, fmt.Sprintf("%.4g", res.Summary[k])))
		}
	}

	return Panel.Render(strings.Join(lines, "\n"))
}

func Interval(iv detect.Interval) string {
	span := fmt.Sprintf("t=%g", iv.StartTime)
	if iv.Len() > 1 {
		span = fmt.Sprintf("t=%g..%g", iv.StartTime, iv.EndTime)
	}
	return fmt.Sprintf("%-6s %s  extreme %.4g", iv.Side, span, iv.Extreme)
}
