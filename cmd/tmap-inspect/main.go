// Copyright 2026 The tmap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// tmap-inspect prints the contents of serialized variant files.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"

	"github.com/graphflow/tmap"
)

func main() {
	app := &cli.App{
		Name:  "tmap-inspect",
		Usage: "Inspect serialized tensor-map variant files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable trace logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				tmap.SetLogger(hclog.New(&hclog.LoggerOptions{
					Name:  "tmap",
					Level: hclog.Trace,
				}))
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Show variant type and map metadata",
				ArgsUsage: "<file>",
				Action:    runInfo,
			},
			{
				Name:      "keys",
				Usage:     "List the keys of a serialized map",
				ArgsUsage: "<file>",
				Action:    runKeys,
			},
			{
				Name:      "dump",
				Usage:     "Print every entry of a serialized map",
				ArgsUsage: "<file>",
				Action:    runDump,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadMap(c *cli.Context) (tmap.Map, error) {
	if c.NArg() != 1 {
		return tmap.Map{}, fmt.Errorf("expected exactly one file argument")
	}

	v, err := tmap.LoadFromFile(c.Args().First())
	if err != nil {
		return tmap.Map{}, err
	}

	m, ok := v.Value().(*tmap.Map)
	if !ok {
		return tmap.Map{}, fmt.Errorf("file holds a %q, not a tensor map", v.TypeName())
	}

	return m.Move(), nil
}

func runInfo(c *cli.Context) error {
	m, err := loadMap(c)
	if err != nil {
		return err
	}
	defer m.Release()

	fmt.Printf("type:          %s\n", tmap.MapTypeName)
	fmt.Printf("element dtype: %s\n", m.ElementDtype)
	fmt.Printf("element shape: %s\n", m.ElementShape)
	if m.MaxSize == tmap.UnboundedSize {
		fmt.Printf("max size:      unbounded\n")
	} else {
		fmt.Printf("max size:      %d\n", m.MaxSize)
	}
	fmt.Printf("entries:       %d\n", m.Len())
	return nil
}

func runKeys(c *cli.Context) error {
	m, err := loadMap(c)
	if err != nil {
		return err
	}
	defer m.Release()

	for _, k := range m.Keys() {
		fmt.Println(k.DebugString())
	}
	return nil
}

func runDump(c *cli.Context) error {
	m, err := loadMap(c)
	if err != nil {
		return err
	}
	defer m.Release()

	for _, k := range m.Keys() {
		v := m.Lookup(tmap.KeyOf(k))
		fmt.Printf("%s -> %s\n", k.DebugString(), v.DebugString())
	}
	return nil
}
