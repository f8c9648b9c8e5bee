// Package weather implements get_weather against weatherapi.com.
package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/tools"
)

const Name = "get_weather"

type input struct {
	Location string `json:"location"`
}

type currentResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current *struct {
		TempC     *float64 `json:"temp_c"`
		TempF     *float64 `json:"temp_f"`
		Condition *struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// New returns the get_weather tool.
func New(cfg config.Weather, hc *http.Client) tools.Tool {
	api := &tools.APIClient{Service: "weatherapi", BaseURL: cfg.BaseURL, HTTP: hc}
	return tools.Tool{
		Def: core.ToolDefinition{
			Name:        Name,
			Description: "Get the current weather for a given location",
			InputSchema: core.Object(map[string]*core.Schema{
				"location": core.String("The location to get the weather for"),
			}, "location"),
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			in, err := tools.Decode[input](args)
			if err != nil {
				return "", err
			}
			if err := tools.RequireKey("tools.weather.api_key", cfg.APIKey); err != nil {
				return "", err
			}
			q := url.Values{"q": {in.Location}, "lang": {"en-us"}, "key": {cfg.APIKey}}
			var resp currentResponse
			if err := api.Get(ctx, "/current.json", q, &resp); err != nil {
				return "", err
			}
			return format(in.Location, resp), nil
		},
	}
}

func format(location string, resp currentResponse) string {
	condition := "unknown"
	if resp.Current != nil && resp.Current.Condition != nil && resp.Current.Condition.Text != "" {
		condition = resp.Current.Condition.Text
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The weather in %s is %s", location, condition)
	if resp.Current != nil && resp.Current.TempC != nil {
		fmt.Fprintf(&b, "\nTemperature: %.1f°C", *resp.Current.TempC)
		if resp.Current.TempF != nil {
			fmt.Fprintf(&b, " (%.1f°F)", *resp.Current.TempF)
		}
	}
	return b.String()
}
