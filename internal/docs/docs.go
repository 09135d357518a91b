// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Estado del servicio",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Verifica usuario y contraseña. No emite sesión ni token; solo informa el rol.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Iniciar sesión de administrador",
                "parameters": [
                    {"description": "Credenciales", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "400": {"description": "solicitud inválida", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "401": {"description": "Usuario no encontrado / Credenciales inválidas", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "500": {"description": "Error en el servidor", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}}
                }
            }
        },
        "/listings": {
            "get": {
                "description": "Todas las mascotas con el nombre de su refugio (null si el código no existe).",
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Listar mascotas",
                "parameters": [
                    {"type": "string", "description": "Filtrar por código de refugio", "name": "shelter_code", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.Listing"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            },
            "post": {
                "description": "Campos requeridos: name, species, age, sex, contact_number, shelter_code. Un image_url vacío se guarda como null.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Publicar mascota",
                "parameters": [
                    {"description": "Datos de la mascota", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ListingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Mascota lista para adopción", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Faltan campos requeridos", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/listings/recent": {
            "get": {
                "description": "Las 10 mascotas más recientes, de la más nueva a la más antigua.",
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Mascotas recientes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.RecentListing"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/listings/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Obtener mascota",
                "parameters": [
                    {"type": "integer", "description": "ID de la mascota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Listing"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "404": {"description": "Mascota no encontrada", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            },
            "put": {
                "description": "Reemplaza todos los campos. Responde éxito aunque el ID no exista.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Actualizar mascota",
                "parameters": [
                    {"type": "integer", "description": "ID de la mascota", "name": "id", "in": "path", "required": true},
                    {"description": "Datos de la mascota", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ListingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Mascota actualizada con éxito", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            },
            "delete": {
                "description": "Responde éxito aunque el ID no exista.",
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Eliminar mascota",
                "parameters": [
                    {"type": "integer", "description": "ID de la mascota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Mascota eliminada con éxito", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/shelters/codes": {
            "get": {
                "description": "Códigos únicos en orden ascendente.",
                "produces": ["application/json"],
                "tags": ["shelters"],
                "summary": "Códigos de refugio",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/upload": {
            "post": {
                "description": "Recibe el campo multipart ` + "`" + `image` + "`" + ` y devuelve la URL pública.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["uploads"],
                "summary": "Subir imagen",
                "parameters": [
                    {"type": "file", "description": "Imagen de la mascota", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Error al subir la imagen", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/upload/sign": {
            "post": {
                "description": "Devuelve cómo subir la imagen directamente al almacenamiento sin pasar por el servidor.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["uploads"],
                "summary": "Firmar subida directa",
                "parameters": [
                    {"description": "Archivo a subir", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DirectUpload"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handlers.ListingRequest": {
            "type": "object",
            "properties": {
                "age": {"type": "string"},
                "contact_number": {"type": "string"},
                "description": {"type": "string"},
                "image_url": {"type": "string"},
                "name": {"type": "string"},
                "sex": {"type": "string"},
                "shelter_code": {"type": "string"},
                "species": {"type": "string"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handlers.LoginResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "role": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "id": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "handlers.SignRequest": {
            "type": "object",
            "properties": {
                "content_type": {"type": "string"},
                "filename": {"type": "string"}
            }
        },
        "handlers.UploadResponse": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        },
        "types.DirectUpload": {
            "type": "object",
            "properties": {
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "headers": {"type": "object", "additionalProperties": {"type": "string"}},
                "method": {"type": "string"},
                "object_key": {"type": "string"},
                "public_url": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "types.Listing": {
            "type": "object",
            "properties": {
                "age": {"type": "string"},
                "contact_number": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "integer"},
                "image_url": {"type": "string"},
                "name": {"type": "string"},
                "sex": {"type": "string", "enum": ["Hembra", "Macho"]},
                "shelter_code": {"type": "string"},
                "shelter_name": {"type": "string"},
                "species": {"type": "string", "enum": ["Canina", "Felina"]}
            }
        },
        "types.RecentListing": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "image_url": {"type": "string"},
                "name": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Patitas API",
	Description:      "Publicación de mascotas en adopción y panel de administración.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
