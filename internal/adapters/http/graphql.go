package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the navigation service.
// The queries expose the resolver and extractor stages individually, which
// is handy for debugging a mis-resolved place without launching anything.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lng": &graphql.Field{Type: graphql.Float},
			"lat": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"adcode":   &graphql.Field{Type: graphql.String},
			"address":  &graphql.Field{Type: graphql.String},
		},
	})

	intentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Intent",
		Fields: graphql.Fields{
			"from": &graphql.Field{Type: graphql.String},
			"to":   &graphql.Field{Type: graphql.String},
		},
	})

	providerArg := &graphql.ArgumentConfig{
		Type:         graphql.String,
		DefaultValue: string(domain.ProviderAMap),
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"resolvePlace": &graphql.Field{
				Type:        placeType,
				Description: "Resolve a keyword to a place record (null when not found)",
				Args: graphql.FieldConfigArgument{
					"keyword":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"provider": providerArg,
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					keyword, _ := p.Args["keyword"].(string)
					providerStr, _ := p.Args["provider"].(string)
					place, err := deps.Navigation.ResolvePlace(p.Context, domain.ParseProvider(providerStr), keyword)
					if err != nil {
						return nil, err
					}
					if place == nil {
						return nil, nil
					}
					return place, nil
				},
			},
			"reverseGeocode": &graphql.Field{
				Type:        placeType,
				Description: "Reverse-geocode a WGS-84 coordinate (null when not found)",
				Args: graphql.FieldConfigArgument{
					"lng":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"provider": providerArg,
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lng, _ := p.Args["lng"].(float64)
					lat, _ := p.Args["lat"].(float64)
					providerStr, _ := p.Args["provider"].(string)
					place, err := deps.Navigation.ResolvePosition(p.Context, domain.ParseProvider(providerStr), lng, lat)
					if err != nil {
						return nil, err
					}
					if place == nil {
						return nil, nil
					}
					return place, nil
				},
			},
			"extractIntent": &graphql.Field{
				Type:        intentType,
				Description: "Extract the origin/destination pair from free text",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input, _ := p.Args["input"].(string)
					return deps.Navigation.ExtractIntent(p.Context, input)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves POST /graphql.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)

	return func(c *fiber.Ctx) error {
		if err != nil {
			return errInternal(c, "graphql schema: "+err.Error())
		}

		var body struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid graphql request")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  body.Query,
			VariableValues: body.Variables,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
