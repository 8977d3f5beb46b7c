// yin-run reads a claim line, a program line and an optional input
// line as JSON from stdin and executes the program on a chosen CESK
// backend, writing the
// result value and step count to stdout as JSON: hosts outside the
// core exercise it end to end, since the core itself defines no CLI.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sonwh98/yin/internal/yin/cesk"
	"github.com/sonwh98/yin/internal/yin/hash"
	"github.com/sonwh98/yin/internal/yin/value"
	"gopkg.in/yaml.v3"

	"github.com/sonwh98/yin/pkg/yin"
)

// fileConfig is the optional YAML override file: hash algorithm,
// trace cadence, and default stream capacity, applied before flags.
type fileConfig struct {
	HashAlgorithm  string `yaml:"hash_algorithm"`
	TraceCadence   int    `yaml:"trace_cadence"`
	StreamCapacity int    `yaml:"stream_capacity"`
	TraceEnabled   bool   `yaml:"trace_enabled"`
	IncludeValues  bool   `yaml:"trace_include_values"`
}

type claimLine struct {
	Name string `json:"name"`
}

type programLine struct {
	Program interface{} `json:"program"`
}

type inputLine struct {
	Bindings map[string]interface{} `json:"bindings"`
}

type outputLine struct {
	Value string `json:"value"`
	Steps int    `json:"steps"`
}

func main() {
	backend := flag.String("backend", "register", "VM backend: tree|graph|register|stack")
	configPath := flag.String("config", "", "optional YAML config file overriding defaults")
	traceFlag := flag.Bool("trace", false, "enable trace datom emission (register backend only)")
	flag.Parse()

	config := yin.DefaultEngineConfig()
	if *configPath != "" {
		if err := applyFileConfig(config, *configPath); err != nil {
			fatal(fmt.Sprintf("loading config: %v", err))
		}
	}
	config.WithBackend(yin.Backend(*backend))
	if *traceFlag {
		config.Trace.WithEnabled(true)
	}

	engine, err := yin.New(config)
	if err != nil {
		fatal(fmt.Sprintf("building engine: %v", err))
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		fatal("failed to read claim line")
	}
	var claim claimLine
	if err := json.Unmarshal(scanner.Bytes(), &claim); err != nil {
		fatal(fmt.Sprintf("parsing claim: %v", err))
	}

	if !scanner.Scan() {
		fatal("failed to read program line")
	}
	var prog programLine
	if err := json.Unmarshal(scanner.Bytes(), &prog); err != nil {
		fatal(fmt.Sprintf("parsing program: %v", err))
	}
	root, err := decodeNode(prog.Program)
	if err != nil {
		fatal(fmt.Sprintf("decoding program: %v", err))
	}

	var input inputLine
	if scanner.Scan() {
		if err := json.Unmarshal(scanner.Bytes(), &input); err != nil {
			fatal(fmt.Sprintf("parsing input: %v", err))
		}
	}

	logStderr(fmt.Sprintf("running claim %q on %s backend", claim.Name, *backend))

	vm, err := engine.Backend(root)
	if err != nil {
		fatal(fmt.Sprintf("building program: %v", err))
	}
	preloadInputs(vm, input.Bindings)

	if err := vm.Run(); err != nil {
		fatal(fmt.Sprintf("execution failed: %v", err))
	}

	out := outputLine{Value: vm.Value().String(), Steps: vm.Steps()}
	bytes, err := json.Marshal(out)
	if err != nil {
		fatal(fmt.Sprintf("serializing result: %v", err))
	}
	os.Stdout.Write(bytes)
	os.Stdout.Write([]byte("\n"))
}

// storeHaver is satisfied by every backend's VM; cesk.VM itself stays
// minimal, so this widening happens at the CLI boundary rather than in
// the core contract.
type storeHaver interface {
	Store() *cesk.Store
}

// preloadInputs writes the input line's bindings into the VM's store
// before Run, the CLI's only way to pass external data in given the
// core exposes no "initial environment" argument.
func preloadInputs(vm cesk.VM, bindings map[string]interface{}) {
	sh, ok := vm.(storeHaver)
	if !ok || len(bindings) == 0 {
		return
	}
	store := sh.Store()
	for k, v := range bindings {
		store.Put(k, jsonToValue(v))
	}
}

func jsonToValue(v interface{}) value.Value {
	switch vv := v.(type) {
	case nil:
		return value.Nil()
	case bool:
		return value.Bool(vv)
	case float64:
		return value.Number(vv)
	case string:
		return value.String(vv)
	default:
		return value.Nil()
	}
}

func hashAlgorithm(name string) hash.Algorithm {
	switch name {
	case "sha3-256", "sha3":
		return hash.SHA3256
	default:
		return hash.SHA256
	}
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "yin-run:", msg)
}

func applyFileConfig(config *yin.EngineConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}
	if fc.HashAlgorithm != "" {
		config.WithHashAlgorithm(hashAlgorithm(fc.HashAlgorithm))
	}
	if fc.TraceCadence > 0 {
		config.Trace.WithCadence(fc.TraceCadence)
	}
	if fc.StreamCapacity > 0 {
		config.Streams.WithDefaultCapacity(fc.StreamCapacity)
	}
	if fc.TraceEnabled {
		config.Trace.WithEnabled(true)
	}
	if fc.IncludeValues {
		config.Trace.WithIncludeValues(true)
	}
	return nil
}
