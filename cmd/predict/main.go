package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"mlportfolio/artifacts"
	"mlportfolio/config"
	"mlportfolio/feature"
	"mlportfolio/logging"
	"mlportfolio/predict"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	workflow := flag.String("workflow", "", "student, cancer or ship")
	input := flag.String("input", "-", "JSON input file, - for stdin")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	if err := run(os.Stdout, os.Stdin, config.Find(*configPath), *workflow, *input, *asJSON); err != nil {
		fmt.Fprintln(os.Stderr, "predict:", err)
		os.Exit(1)
	}
}

func run(out io.Writer, stdin io.Reader, configPath, workflow, inputPath string, asJSON bool) error {
	if workflow == "" {
		return errors.New("-workflow is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Log.File = ""
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	bundle, err := artifacts.Load(cfg.Artifacts)
	if err != nil {
		return err
	}
	svc, err := predict.NewService(artifacts.NewHolder(bundle), predict.Options{CacheSize: 1, Logger: logger})
	if err != nil {
		return err
	}

	inputs, err := readInputs(stdin, inputPath)
	if err != nil {
		return err
	}
	res, err := svc.Predict(context.Background(), workflow, inputs)
	if err != nil {
		var catErr *feature.InvalidCategoryError
		if errors.As(err, &catErr) {
			return fmt.Errorf("%w\nallowed values for %q: %v", err, catErr.Feature, catErr.Allowed)
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if _, err := fmt.Fprintln(out, res.Summary); err != nil {
		return err
	}
	for _, name := range res.Recovered {
		fmt.Fprintf(out, "note: %q could not be read, default used\n", name)
	}
	return nil
}

func readInputs(stdin io.Reader, path string) (map[string]interface{}, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var inputs map[string]interface{}
	if err := dec.Decode(&inputs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if nested, ok := inputs["inputs"].(map[string]interface{}); ok && len(inputs) == 1 {
		return nested, nil
	}
	if inputs == nil {
		inputs = map[string]interface{}{}
	}
	return inputs, nil
}
