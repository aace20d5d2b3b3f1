package httpserver

import (
	"encoding/json"
	"fmt"
	"html/template"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/scorecast/internal/domain"
)

// scenes offered by the control panel; a custom scene set via /update is kept as an option.
var scenes = []string{"intro", "live", "halftime", "outro"}

type teamView struct {
	ID    domain.TeamID
	Label string
	Team  domain.Team
}

// pageData is what the control panel and overlay templates render from.
type pageData struct {
	Document domain.Document
	Teams    []teamView
	Scenes   []string
	// State is the document as a JSON literal for the page script.
	State template.JS
}

func (s *Server) registerPageRoutes() {
	s.echo.GET("/", s.handleControlPanel)
	s.echo.GET("/overlay", s.handleOverlay)
}

func (s *Server) handleControlPanel(c echo.Context) error {
	return s.renderPage(c, "control_panel.html")
}

func (s *Server) handleOverlay(c echo.Context) error {
	return s.renderPage(c, "overlay.html")
}

func (s *Server) renderPage(c echo.Context, name string) error {
	doc, err := s.hub.Document(c.Request().Context())
	if err != nil {
		return mapHubError(err, "failed to read scoreboard")
	}

	data, err := newPageData(doc)
	if err != nil {
		return err
	}
	return s.renderTemplate(c, name, data)
}

func newPageData(doc domain.Document) (pageData, error) {
	state, err := json.Marshal(doc)
	if err != nil {
		return pageData{}, fmt.Errorf("encode page state: %w", err)
	}

	options := scenes
	if doc.Scene != "" && !slices.Contains(options, doc.Scene) {
		options = append(slices.Clone(scenes), doc.Scene)
	}

	return pageData{
		Document: doc,
		Teams: []teamView{
			{ID: domain.TeamA, Label: "Team A", Team: doc.TeamA},
			{ID: domain.TeamB, Label: "Team B", Team: doc.TeamB},
		},
		Scenes: options,
		State:  template.JS(state),
	}, nil
}
