package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	zoneStatusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ZoneStatus",
		Fields: graphql.Fields{
			"inside":      &graphql.Field{Type: graphql.Boolean},
			"distance_m":  &graphql.Field{Type: graphql.Float},
			"heading_deg": &graphql.Field{Type: graphql.Float},
		},
	})

	activeUserType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ActiveUser",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"session_id": &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"status":     &graphql.Field{Type: graphql.String},
			"zone":       &graphql.Field{Type: zoneStatusType},
			"last_seen":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"description":    &graphql.Field{Type: graphql.String},
			"type":           &graphql.Field{Type: graphql.String},
			"difficulty":     &graphql.Field{Type: graphql.String},
			"suggested_stay": &graphql.Field{Type: graphql.String},
			"location":       &graphql.Field{Type: geoPointType},
			"distance":       &graphql.Field{Type: graphql.Float},
		},
	})

	notificationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Notification",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"title":      &graphql.Field{Type: graphql.String},
			"body":       &graphql.Field{Type: graphql.String},
			"url":        &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"is_read":    &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"activeUsers": &graphql.Field{
				Type:        graphql.NewList(activeUserType),
				Description: "Sessions seen within the window, with zone status",
				Args: graphql.FieldConfigArgument{
					"window_minutes": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					window := time.Duration(p.Args["window_minutes"].(int)) * time.Minute
					return deps.Presence.ListActive(p.Context, window)
				},
			},
			"user": &graphql.Field{
				Type:        activeUserType,
				Description: "Look up one session",
				Args: graphql.FieldConfigArgument{
					"session_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Presence.Session(p.Context, p.Args["session_id"].(string))
				},
			},
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "The full point-of-interest catalogue",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.List(p.Context)
				},
			},
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Places near a location, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 5000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Nearby(p.Context,
						p.Args["lat"].(float64), p.Args["lon"].(float64),
						p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Get(p.Context, p.Args["id"].(string))
				},
			},
			"notifications": &graphql.Field{
				Type:        graphql.NewList(notificationType),
				Description: "Broadcast history, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					items, _, err := deps.Notifications.History(p.Context,
						p.Args["limit"].(int), p.Args["offset"].(int))
					return items, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
