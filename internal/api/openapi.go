package api

// openAPISpec is a minimal OpenAPI document served at /swagger.json.
const openAPISpec = `{
  "openapi": "3.0.0",
  "info": {
    "title": "Stock Ledger API",
    "version": "1.0.0"
  },
  "components": {
    "securitySchemes": {
      "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" }
    },
    "schemas": {
      "Envelope": {
        "type": "object",
        "properties": {
          "success": { "type": "boolean" },
          "message": { "type": "string" },
          "data": {},
          "count": { "type": "integer" }
        }
      },
      "Product": {
        "type": "object",
        "properties": {
          "id": { "type": "string", "format": "uuid" },
          "name": { "type": "string" },
          "category": { "type": "string", "format": "uuid" },
          "category_name": { "type": "string" },
          "price": { "type": "string", "example": "19.99" },
          "quantity": { "type": "integer" },
          "description": { "type": "string" },
          "stock_threshold": { "type": "integer" },
          "low_stock": { "type": "boolean" },
          "sku": { "type": "string" },
          "is_active": { "type": "boolean" },
          "created_at": { "type": "string", "format": "date-time" },
          "updated_at": { "type": "string", "format": "date-time" }
        }
      },
      "Sale": {
        "type": "object",
        "properties": {
          "id": { "type": "string", "format": "uuid" },
          "product": { "type": "string", "format": "uuid" },
          "product_name": { "type": "string" },
          "quantity_sold": { "type": "integer" },
          "unit_price": { "type": "string" },
          "total_price": { "type": "string" },
          "sold_by": { "type": "string", "format": "uuid", "nullable": true },
          "sold_by_username": { "type": "string" },
          "sale_date": { "type": "string", "format": "date-time" },
          "updated_at": { "type": "string", "format": "date-time" }
        }
      },
      "SaleRequest": {
        "type": "object",
        "required": ["product", "quantity_sold"],
        "properties": {
          "product": { "type": "string", "format": "uuid" },
          "quantity_sold": { "type": "integer", "minimum": 1 }
        }
      },
      "StockAdjustment": {
        "type": "object",
        "required": ["delta"],
        "properties": {
          "delta": { "type": "integer" },
          "reason": { "type": "string" }
        }
      }
    }
  },
  "security": [{ "bearer": [] }],
  "paths": {
    "/health": {
      "get": { "summary": "Health check", "security": [], "responses": { "200": { "description": "Service is healthy" } } }
    },
    "/api/user/auth/register": {
      "post": { "summary": "Register a user", "security": [], "responses": { "201": { "description": "Registered" }, "400": { "description": "Invalid payload" }, "409": { "description": "Email taken" } } }
    },
    "/api/user/auth/login": {
      "post": { "summary": "Obtain tokens", "security": [], "responses": { "200": { "description": "Tokens issued" }, "401": { "description": "Invalid credentials" } } }
    },
    "/api/user/auth/token/refresh": {
      "post": { "summary": "Refresh the access token", "security": [], "responses": { "200": { "description": "Token issued" } } }
    },
    "/api/inventory/products": {
      "get": {
        "summary": "List products",
        "parameters": [
          { "name": "category", "in": "query", "schema": { "type": "string", "format": "uuid" } },
          { "name": "is_active", "in": "query", "schema": { "type": "boolean" } },
          { "name": "min_price", "in": "query", "schema": { "type": "number" } },
          { "name": "max_price", "in": "query", "schema": { "type": "number" } },
          { "name": "min_quantity", "in": "query", "schema": { "type": "integer" } },
          { "name": "max_quantity", "in": "query", "schema": { "type": "integer" } },
          { "name": "low_stock", "in": "query", "schema": { "type": "boolean" } },
          { "name": "search", "in": "query", "schema": { "type": "string" } }
        ],
        "responses": { "200": { "description": "Products" } }
      },
      "post": { "summary": "Create a product", "responses": { "201": { "description": "Created" } } }
    },
    "/api/inventory/products/low-stock": {
      "get": { "summary": "Products at or below their stock threshold", "responses": { "200": { "description": "Products" } } }
    },
    "/api/inventory/products/{id}/stock-adjustments": {
      "post": {
        "summary": "Correct a product's stock",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/StockAdjustment" } } } },
        "responses": { "200": { "description": "Adjusted" }, "409": { "description": "Insufficient stock" } }
      }
    },
    "/api/inventory/sales": {
      "get": { "summary": "List sales", "responses": { "200": { "description": "Sales" } } },
      "post": {
        "summary": "Record a sale",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/SaleRequest" } } } },
        "responses": {
          "201": { "description": "Sale recorded", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Sale" } } } },
          "400": { "description": "Quantity must be greater than zero" },
          "404": { "description": "Product not found" },
          "409": { "description": "Insufficient stock or concurrent update" }
        }
      }
    },
    "/api/inventory/sales/{id}": {
      "put": { "summary": "Revise a sale's quantity", "responses": { "200": { "description": "Revised" }, "409": { "description": "Insufficient stock" } } },
      "delete": { "summary": "Reverse a sale and restore its stock", "responses": { "200": { "description": "Reversed" }, "404": { "description": "Sale not found" } } }
    },
    "/api/inventory/reports/summary": {
      "get": { "summary": "Inventory and sales summary", "responses": { "200": { "description": "Summary" } } }
    }
  }
}`
