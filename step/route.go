package step

import (
	"railway/game"
	"railway/round"
)

// Route runs the corporation's trains. An empty run-route asks the auto
// router, when one is configured, to pick the routes.
type Route struct {
	base
	router Router
	auto   *AutoRouter
}

// NewRoute creates and returns a new Route instance. A nil router means
// StopRouter.
func NewRoute(router Router, auto *AutoRouter) *Route {
	if router == nil {
		router = StopRouter{}
	}
	return &Route{base: base{name: "route"}, router: router, auto: auto}
}

func (r *Route) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || ctx.Round.RoutesRun || ctx.Round.DividendPaid || len(corp.Trains) == 0 {
		return nil
	}
	return []game.ActionKind{game.RunRoute}
}

func (r *Route) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.RunRoute)
	if err != nil {
		return err
	}
	if ctx.Round.RoutesRun || ctx.Round.DividendPaid {
		return game.Violation(game.CodeIllegalRoute, "%s already ran this turn", corp.ID)
	}
	routes := a.Routes
	if len(routes) == 0 && r.auto != nil {
		routes = r.auto.Find(ctx.Game, corp)
	}
	revenue, err := r.router.Revenue(ctx.Game, corp, routes)
	if err != nil {
		return err
	}
	for _, route := range routes {
		if t, ok := corp.Train(route.Train); ok {
			t.Operated = true
		}
	}
	ctx.Round.Routes = routes
	ctx.Round.Revenue = revenue
	ctx.Round.RoutesRun = true
	ctx.Log.Info().Msgf("%s runs %d routes for %s", corp.ID, len(routes), ctx.Rules().Format(revenue))
	ctx.Emit(game.Event{Type: "routes_run", Entity: corp.ID, Data: map[string]any{"revenue": revenue, "routes": len(routes)}})
	return nil
}
