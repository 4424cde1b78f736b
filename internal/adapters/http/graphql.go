package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

func stateVectorMap(sv *domain.StateVector) map[string]interface{} {
	return map[string]interface{}{
		"epoch": sv.Epoch,
		"x":     sv.X,
		"y":     sv.Y,
		"z":     sv.Z,
		"x_dot": sv.XDot,
		"y_dot": sv.YDot,
		"z_dot": sv.ZDot,
	}
}

// buildSchema creates the GraphQL schema wired to the ephemeris service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	vectorFields := graphql.Fields{
		"epoch": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"x":     &graphql.Field{Type: graphql.Float},
		"y":     &graphql.Field{Type: graphql.Float},
		"z":     &graphql.Field{Type: graphql.Float},
		"x_dot": &graphql.Field{Type: graphql.Float},
		"y_dot": &graphql.Field{Type: graphql.Float},
		"z_dot": &graphql.Field{Type: graphql.Float},
	}

	stateVectorType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "StateVector",
		Fields: vectorFields,
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"epoch":       &graphql.Field{Type: graphql.String},
			"latitude":    &graphql.Field{Type: graphql.Float},
			"longitude":   &graphql.Field{Type: graphql.Float},
			"altitude":    &graphql.Field{Type: graphql.Float},
			"geoposition": &graphql.Field{Type: graphql.String},
		},
	})

	nowFields := graphql.Fields{
		"speed":       &graphql.Field{Type: graphql.Float},
		"latitude":    &graphql.Field{Type: graphql.Float},
		"longitude":   &graphql.Field{Type: graphql.Float},
		"altitude":    &graphql.Field{Type: graphql.Float},
		"geoposition": &graphql.Field{Type: graphql.String},
	}
	for name, f := range vectorFields {
		nowFields[name] = &graphql.Field{Type: f.Type}
	}
	nowType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Now",
		Fields: nowFields,
	})

	metadataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Metadata",
		Fields: graphql.Fields{
			"object_name": &graphql.Field{Type: graphql.String},
			"object_id":   &graphql.Field{Type: graphql.String},
			"center_name": &graphql.Field{Type: graphql.String},
			"ref_frame":   &graphql.Field{Type: graphql.String},
			"time_system": &graphql.Field{Type: graphql.String},
			"start_time":  &graphql.Field{Type: graphql.String},
			"stop_time":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"epochs": &graphql.Field{
				Type: graphql.NewList(stateVectorType),
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					page := domain.Page{Offset: p.Args["offset"].(int)}
					if limit, ok := p.Args["limit"].(int); ok {
						page.Limit = &limit
					}
					if page.Offset < 0 {
						page.Offset = 0
					}
					vectors, _, err := deps.Ephemeris.List(p.Context, page)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(vectors))
					for i := range vectors {
						out = append(out, stateVectorMap(&vectors[i]))
					}
					return out, nil
				},
			},
			"epoch": &graphql.Field{
				Type: stateVectorType,
				Args: graphql.FieldConfigArgument{
					"epoch": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sv, err := deps.Ephemeris.GetByEpoch(p.Context, p.Args["epoch"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return stateVectorMap(sv), nil
				},
			},
			"location": &graphql.Field{
				Type: locationType,
				Args: graphql.FieldConfigArgument{
					"epoch": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rep, err := deps.Ephemeris.Location(p.Context, p.Args["epoch"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"epoch":       rep.Epoch,
						"latitude":    rep.Latitude,
						"longitude":   rep.Longitude,
						"altitude":    rep.Altitude,
						"geoposition": rep.Geoposition,
					}, nil
				},
			},
			"now": &graphql.Field{
				Type: nowType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rep, err := deps.Ephemeris.Now(p.Context)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"epoch":       rep.Epoch,
						"x":           rep.X,
						"y":           rep.Y,
						"z":           rep.Z,
						"x_dot":       rep.XDot,
						"y_dot":       rep.YDot,
						"z_dot":       rep.ZDot,
						"speed":       rep.Speed,
						"latitude":    rep.Latitude,
						"longitude":   rep.Longitude,
						"altitude":    rep.Altitude,
						"geoposition": rep.Geoposition,
					}, nil
				},
			},
			"metadata": &graphql.Field{
				Type: metadataType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					md, err := deps.Ephemeris.Metadata(p.Context)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"object_name": md.ObjectName,
						"object_id":   md.ObjectID,
						"center_name": md.CenterName,
						"ref_frame":   md.RefFrame,
						"time_system": md.TimeSystem,
						"start_time":  md.StartTime,
						"stop_time":   md.StopTime,
					}, nil
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
			return errBadRequest(c, "query must not be empty")
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
