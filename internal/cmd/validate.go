package cmd

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/dosanma1/crossdeck/internal/release"
)

//go:embed schemas/crossdeck.v1.schema.json
var schemaFS embed.FS

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the release configuration",
	Long: `Validate crossdeck.yaml against the configuration schema, then run
the semantic checks (unique target ids, image presence for
containerized targets, artifact name collisions).`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root, err := release.FindRoot(cwd)
	if err != nil {
		return fmt.Errorf("%s not found in current directory or any parent", release.ConfigFileName)
	}
	configPath := filepath.Join(root, release.ConfigFileName)

	fmt.Printf("🔍 Validating %s...\n", configPath)

	document, err := configAsJSON(configPath)
	if err != nil {
		return err
	}

	schemaBytes, err := schemaFS.ReadFile("schemas/crossdeck.v1.schema.json")
	if err != nil {
		return fmt.Errorf("failed to load configuration schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		fmt.Println("\n❌ Validation failed with the following errors:")
		fmt.Println()
		for i, desc := range result.Errors() {
			fmt.Printf("%d. %s\n", i+1, desc.String())
			fmt.Printf("   Field: %s\n\n", desc.Field())
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors()))
	}

	// Schema passed; check the relationships the schema cannot see.
	cfg, err := release.LoadConfig(root)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", release.ConfigFileName, err)
	}
	if err := release.NewValidator().Validate(cfg); err != nil {
		fmt.Printf("\n❌ Semantic check failed: %v\n", err)
		return err
	}

	fmt.Printf("✅ %s is valid (%d targets)\n", release.ConfigFileName, len(cfg.Targets))
	return nil
}

// configAsJSON converts the YAML config to JSON for the schema
// validator.
func configAsJSON(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	document, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert configuration to JSON: %w", err)
	}
	return document, nil
}
