package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_profiles_table.sql",
		"00002_create_refresh_tokens_table.sql",
		"00003_create_categories_table.sql",
		"00004_create_products_table.sql",
		"00005_create_carts_table.sql",
		"00006_create_cart_items_table.sql",
		"00007_create_orders_table.sql",
		"00008_create_order_items_table.sql",
		"00009_create_reviews_table.sql",
		"00010_create_counter_sales_table.sql",
		"00011_create_chat_messages_table.sql",
		"00012_create_store_settings_table.sql",
		"00013_create_revenue_functions.sql",
		"00014_create_change_feed_triggers.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)
		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"profiles":       "00001_create_profiles_table.sql",
		"refresh_tokens": "00002_create_refresh_tokens_table.sql",
		"categories":     "00003_create_categories_table.sql",
		"products":       "00004_create_products_table.sql",
		"carts":          "00005_create_carts_table.sql",
		"cart_items":     "00006_create_cart_items_table.sql",
		"orders":         "00007_create_orders_table.sql",
		"order_items":    "00008_create_order_items_table.sql",
		"reviews":        "00009_create_reviews_table.sql",
		"counter_sales":  "00010_create_counter_sales_table.sql",
		"chat_messages":  "00011_create_chat_messages_table.sql",
		"store_settings": "00012_create_store_settings_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		content, err := os.ReadFile(filepath.Join(migrationsDir, migrationFile))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)
		if !strings.Contains(contentStr, "CREATE TABLE "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestOrdersTableHasStatusConstraint(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00007_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read orders migration: %v", err)
	}

	contentStr := string(content)
	for _, status := range []string{"pending", "paid", "shipped", "delivered", "cancelled", "returned"} {
		if !strings.Contains(contentStr, "'"+status+"'") {
			t.Errorf("Orders table status constraint missing value: %s", status)
		}
	}
}

func TestProductsTableHasRequiredColumns(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00004_create_products_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read products migration: %v", err)
	}

	contentStr := string(content)
	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"title VARCHAR",
		"description TEXT",
		"price DECIMAL",
		"compare_at_price DECIMAL",
		"stock_quantity INTEGER",
		"category_id UUID",
		"slug VARCHAR",
		"is_featured BOOLEAN",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Products table missing required column definition: %s", column)
		}
	}

	if !strings.Contains(contentStr, "FOREIGN KEY (category_id)") {
		t.Error("Products table missing foreign key constraint to categories")
	}
}

func TestCartItemsTableHasUniqueConstraint(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00006_create_cart_items_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read cart_items migration: %v", err)
	}

	if !strings.Contains(string(content), "UNIQUE (cart_id, product_id)") {
		t.Error("Cart items table missing unique constraint on (cart_id, product_id)")
	}
}

func TestRevenueFunctionsAreDefined(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00013_create_revenue_functions.sql"))
	if err != nil {
		t.Fatalf("Failed to read revenue functions migration: %v", err)
	}

	contentStr := string(content)
	for _, fn := range []string{"get_trending_products", "get_daily_revenue"} {
		if !strings.Contains(contentStr, "CREATE OR REPLACE FUNCTION "+fn) {
			t.Errorf("Missing SQL function %s", fn)
		}
		if !strings.Contains(contentStr, "DROP FUNCTION IF EXISTS "+fn) {
			t.Errorf("Missing down migration for SQL function %s", fn)
		}
	}
}

func TestChangeFeedTriggersNotifyTheSharedChannel(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00014_create_change_feed_triggers.sql"))
	if err != nil {
		t.Fatalf("Failed to read change feed migration: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "pg_notify('table_changes'") {
		t.Error("Change feed triggers do not notify the table_changes channel")
	}
	for _, table := range []string{"orders", "products", "counter_sales", "chat_messages"} {
		if !strings.Contains(contentStr, "ON "+table) {
			t.Errorf("Missing change feed trigger on table %s", table)
		}
	}
}
