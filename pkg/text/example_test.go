package text_test

import (
	"fmt"

	"github.com/walteh/resub/pkg/text"
)

func ExamplePattern_Subn() {
	p, err := text.Compile(`(\w+)\.txt`, `\1.md`, text.CompileOptions{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	out, count := p.Subn("notes.txt todo.txt")
	fmt.Printf("Modified: %s\n", out)
	fmt.Printf("Changes: %d\n", count)

	// Output:
	// Modified: notes.md todo.md
	// Changes: 2
}
