package ui

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// FileSelector is the interactive-mode shell: it lists the TDMS files in
// the current directory and lets the user pick one to inspect.
type FileSelector struct {
	cwd      string
	files    []string
	cursor   int
	Selected string
}

func CreateFileSelector() FileSelector {
	cwd, err := os.Getwd()
	if err != nil {
		err := errors.Wrap(err, "CreateFileSelector get current working directory error")
		log.Panic(err)
	}
	return FileSelector{
		cwd:   cwd,
		files: ReadTDMSFiles(cwd),
	}
}

// ReadTDMSFiles lists the .tdms files of a directory, in directory order.
func ReadTDMSFiles(path string) []string {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Fatal(err)
	}

	names := lo.Map(
		entries,
		func(t fs.DirEntry, _ int) string {
			return t.Name()
		},
	)
	return lo.Filter(
		names,
		func(name string, _ int) bool {
			return strings.HasSuffix(strings.ToLower(name), ".tdms")
		},
	)
}

func (s FileSelector) View() string {
	output := "TDMS INSPECTOR\n\n"
	output += "Current directory: " + s.cwd + "\n"

	if len(s.files) == 0 {
		output += "No .tdms files here. Please run from a directory that has some.\n"
		return output
	}

	for i, name := range s.files {
		marker := "  "
		if i == s.cursor {
			marker = "> "
		}
		output += fmt.Sprintf("%s%s\n", marker, name)
	}
	output += "\n(up/down to move, enter to select, q to quit)\n"

	return output
}

func (s FileSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return s, tea.Quit
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.files)-1 {
			s.cursor++
		}
	case "enter":
		if len(s.files) > 0 {
			s.Selected = s.files[s.cursor]
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s FileSelector) Init() tea.Cmd {
	return nil
}
