package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"

	"go-tdms/ds"
	"go-tdms/tdms"
	"go-tdms/tdms/tvalue"
	"go-tdms/ui"
)

type (
	Args struct {
		Interactive *InteractiveCmd `arg:"subcommand:interactive"`
		Convert     *ConvertCmd     `arg:"subcommand:convert"`
		Info        *InfoCmd        `arg:"subcommand:info"`
	}
	InteractiveCmd struct{}
	ConvertCmd     struct {
		From        string `arg:"required" help:"path to source TDMS file" placeholder:"measurement.tdms"`
		To          string `arg:"required" help:"path to destination JSON file" placeholder:"measurement.json"`
		Force       bool   `help:"overwrite the destination file"`
		KeepPartial bool   `help:"keep whole chunks of segments with trailing surplus bytes"`
	}
	InfoCmd struct {
		Path string `arg:"positional,required" help:"path to a TDMS file"`
	}
)

func (Args) Description() string {
	des := strings.Join(
		[]string{
			"A CLI utility to inspect TDMS measurement containers and convert",
			"their channel data and properties to JSON.",
		},
		"\n",
	)
	des += "\n"
	return des
}

func CheckExistence(path string) bool {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil
}

func StartConverting(from string, to string, force bool, keepPartial bool) {
	if !CheckExistence(from) {
		println("Source file does not exist!")
		return
	}
	if CheckExistence(to) && !force {
		println("Destination file exists. Please type the command again with --force to allow overwriting!")
		return
	}

	file, err := tdms.Open(from, tdms.WithKeepPartial(keepPartial))
	if err != nil {
		println("Error happened mapping the TDMS file: " + err.Error())
		return
	}
	defer file.Close()

	vectors, err := file.LoadAll()
	if err != nil {
		println("Error happened decoding channel data: " + err.Error())
		return
	}

	objects := ds.NewLinkedHashMap[string, any]()
	for _, path := range file.Paths() {
		object := ds.NewLinkedHashMap[string, any]()
		if properties, err := file.Properties(path); err == nil {
			object.Put("properties", properties)
		}
		if vector, ok := vectors[path]; ok {
			object.Put("values", vector)
		}
		objects.Put(path, object)
	}

	out := ds.NewLinkedHashMap[string, any]()
	out.Put("objects", objects)
	out.Put("warnings", warningStrings(file.Warnings()))

	outBytes, err := out.MarshalJSON()
	if err != nil {
		println("Error happened serializing to JSON: " + err.Error())
		return
	}
	if err := os.WriteFile(to, outBytes, 0644); err != nil {
		println("Error happened writing to file at: " + to)
		return
	}
	println("Done converting. Please check your result file at: " + to)
}

func StartInfo(path string) {
	file, err := tdms.Open(path)
	if err != nil {
		println("Error happened mapping the TDMS file: " + err.Error())
		return
	}
	defer file.Close()

	fmt.Printf("Segments: %d\n", len(file.Segments()))
	for _, segment := range file.Segments() {
		fmt.Printf(
			"  segment %d: start=%d raw_len=%d chunks=%d\n",
			segment.Index, segment.Start, segment.RawLen, segment.ChunkCount,
		)
	}

	fmt.Println("Objects:")
	dataPaths := map[string]bool{}
	for _, path := range file.DataPaths() {
		dataPaths[path] = true
	}
	for _, path := range file.Paths() {
		marker := ""
		if dataPaths[path] {
			vector, err := file.LoadVector(path)
			if err == nil {
				marker = fmt.Sprintf(" [%d values of %s]", vector.Len(), vector.Type)
			}
		}
		fmt.Printf("  %s%s\n", path, marker)

		properties, err := file.Properties(path)
		if err != nil {
			continue
		}
		properties.Each(func(name string, value tvalue.Value) {
			fmt.Printf("    %s = %s\n", name, ds.DumpJSON(value.Data))
		})
	}

	for _, warning := range file.Warnings() {
		fmt.Printf("warning (segment %d): %s\n", warning.SegmentIndex, warning.Err)
	}
}

func warningStrings(warnings []tdms.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, fmt.Sprintf("segment %d: %s", warning.SegmentIndex, warning.Err))
	}
	return out
}

func Start() {
	args := Args{}
	arg.MustParse(&args)

	switch {
	case args.Convert != nil:
		StartConverting(args.Convert.From, args.Convert.To, args.Convert.Force, args.Convert.KeepPartial)
	case args.Info != nil:
		StartInfo(args.Info.Path)
	default:
		if path := ui.Select(); path != "" {
			StartInfo(path)
		}
	}
}
