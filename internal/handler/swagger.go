package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/docs"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec is the subset of an OpenAPI 3.0 document produced from the swag output
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server is an OpenAPI 3.0 server entry
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

var defaultServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
}

func rewriteRef(ref string) string {
	return strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
}

// convertNode walks a Swagger 2.0 fragment, rewriting $refs and moving parameter types under schema
func convertNode(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		if _, hasIn := v["in"]; hasIn {
			if _, hasName := v["name"]; hasName {
				return convertParameter(v)
			}
		}
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = rewriteRef(ref)
				continue
			}
			result[key] = convertNode(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = convertNode(item)
		}
		return result
	default:
		return data
	}
}

func convertParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}
	if param["in"] == "body" {
		result["schema"] = convertNode(param["schema"])
		return result
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = convertNode(val)
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

// liftRequestBodies replaces "in: body" parameters with an OpenAPI 3.0 requestBody
func liftRequestBodies(paths map[string]interface{}) {
	for _, item := range paths {
		operations, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for _, op := range operations {
			operation, ok := op.(map[string]interface{})
			if !ok {
				continue
			}
			params, ok := operation["parameters"].([]interface{})
			if !ok {
				continue
			}
			kept := params[:0]
			for _, p := range params {
				param, ok := p.(map[string]interface{})
				if !ok || param["in"] != "body" {
					kept = append(kept, p)
					continue
				}
				operation["requestBody"] = map[string]interface{}{
					"required": param["required"] == true,
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{"schema": param["schema"]},
					},
				}
			}
			if len(kept) == 0 {
				delete(operation, "parameters")
			} else {
				operation["parameters"] = kept
			}
		}
	}
}

// convertSwagger2 turns the swag-generated Swagger 2.0 JSON into an OpenAPI 3.0 document
func convertSwagger2(doc []byte, servers []Server) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal(doc, &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := convertNode(swagger2["paths"]).(map[string]interface{})
	if paths == nil {
		paths = map[string]interface{}{}
	}
	liftRequestBodies(paths)

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = convertNode(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      paths,
		Components: components,
	}, nil
}

// NewOpenAPI3Handler serves the API documentation as OpenAPI 3.0 listing the given servers
func NewOpenAPI3Handler(servers []Server) echo.HandlerFunc {
	if len(servers) == 0 {
		servers = defaultServers
	}
	return func(c echo.Context) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return NewInternalError(c, "Failed to read API documentation")
		}
		spec, err := convertSwagger2([]byte(doc), servers)
		if err != nil {
			return NewInternalError(c, "Failed to parse API documentation")
		}
		return c.JSON(http.StatusOK, spec)
	}
}

// ServeOpenAPI3Spec serves the documentation with the local development server only
func ServeOpenAPI3Spec(c echo.Context) error {
	return NewOpenAPI3Handler(nil)(c)
}
