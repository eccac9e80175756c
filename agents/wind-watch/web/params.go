package web

import (
	"net/url"
	"strconv"
	"strings"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/models"
)

// parseParams overlays the query or form values on defaults. Range checks are
// left to the cycle.
func parseParams(values url.Values, defaults models.CycleParams) (models.CycleParams, error) {
	p := defaults

	if city := strings.TrimSpace(values.Get("city")); city != "" {
		p.City = city
	}
	if s := values.Get("threshold"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return p, &windwatch.ParamError{Field: "threshold", Reason: "must be a number"}
		}
		p.Threshold = v
	}
	if s := values.Get("window"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return p, &windwatch.ParamError{Field: "window", Reason: "must be an integer"}
		}
		p.Window = v
	}
	if s := values.Get("armed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			// checkbox inputs submit "on"
			v = s == "on"
			if !v {
				return p, &windwatch.ParamError{Field: "armed", Reason: "must be a boolean"}
			}
		}
		p.Armed = v
	}
	if values.Has("recipient") {
		p.Recipient = strings.TrimSpace(values.Get("recipient"))
	}
	return p, nil
}

func encodeParams(p models.CycleParams) string {
	v := url.Values{}
	v.Set("city", p.City)
	v.Set("threshold", strconv.FormatFloat(p.Threshold, 'f', -1, 64))
	v.Set("window", strconv.Itoa(p.Window))
	v.Set("armed", strconv.FormatBool(p.Armed))
	if p.Recipient != "" {
		v.Set("recipient", p.Recipient)
	}
	return v.Encode()
}
