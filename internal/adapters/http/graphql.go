package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the sighting service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinatesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinates",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	sightingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Sighting",
		Fields: graphql.Fields{
			"pokemon_id": &graphql.Field{Type: graphql.Int},
			"location":   &graphql.Field{Type: coordinatesType},
			"icon_url": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, ok := p.Source.(domain.Sighting)
					if !ok {
						return nil, nil
					}
					return deps.Sightings.IconURL(s.PokemonID), nil
				},
			},
		},
	})

	detailType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SightingDetail",
		Fields: graphql.Fields{
			"pokemon_id": &graphql.Field{Type: graphql.Int},
			"data": &graphql.Field{
				Type:        graphql.String,
				Description: "Raw detail record as returned by the data API",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					d, ok := p.Source.(*domain.SightingDetail)
					if !ok || d == nil {
						return nil, nil
					}
					return string(d.Data), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sightings": &graphql.Field{
				Type:        graphql.NewList(sightingType),
				Description: "Sightings inside a box; start/end select the past, predicted or combined feed",
				Args: graphql.FieldConfigArgument{
					"from":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"start": &graphql.ArgumentConfig{Type: graphql.Int},
					"end":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, err := domain.ParseLngLat(p.Args["from"].(string))
					if err != nil {
						return nil, err
					}
					to, err := domain.ParseLngLat(p.Args["to"].(string))
					if err != nil {
						return nil, err
					}
					tr := deps.Map.TimeRange()
					if v, ok := p.Args["start"].(int); ok {
						tr.Start = v
					}
					if v, ok := p.Args["end"].(int); ok {
						tr.End = v
					}
					return deps.Sightings.InBounds(p.Context, domain.Bounds{NorthWest: from, SouthEast: to}, tr)
				},
			},
			"sighting": &graphql.Field{
				Type:        detailType,
				Description: "Detail record for one Pokémon",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sightings.Details(p.Context, p.Args["id"].(int))
				},
			},
			"window": &graphql.Field{
				Type:        graphql.NewList(sightingType),
				Description: "Sightings reported inside a time window",
				Args: graphql.FieldConfigArgument{
					"start": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"end":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tr := domain.TimeRange{Start: p.Args["start"].(int), End: p.Args["end"].(int)}
					return deps.Sightings.Window(p.Context, tr)
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
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
