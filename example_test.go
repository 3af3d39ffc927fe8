package markup_test

import (
	"fmt"
	"os"

	"github.com/abiiranathan/go-markup"
	"github.com/abiiranathan/go-markup/diag"
)

func Example() {
	t := markup.MustCompile(`p class="greeting" { "Hello, " (name) }`)
	out, err := t.Render(map[string]any{"name": "<world>"})
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output: <p class="greeting">Hello, &lt;world&gt;</p>
}

func Example_controlFlow() {
	t := markup.MustCompile(`ul {
		@for i, item in items {
			li.item.first[i == 0] { (item) }
		}
	}
	@if len(items) > 2 { p { "many" } } @else { p { "few" } }`)

	if err := t.Execute(os.Stdout, map[string]any{"items": []string{"a", "b"}}); err != nil {
		panic(err)
	}
	fmt.Println()
	// Output: <ul><li class="item first">a</li><li class="item">b</li></ul><p>few</p>
}

func Example_diagnostics() {
	src := "div {\n  dvi { }\n}"
	_, err := markup.Options{Name: "page.mu"}.Compile(src)
	fmt.Print(diag.Format(err, "page.mu", src))
	// Output:
	// ValidationError in page.mu at 2:3: unknown element <dvi>
	//
	//    1 | div {
	//    2 |   dvi { }
	//      |   ^
	//    3 | }
	// hint: did you mean <div>?
}

func ExampleTemplate_Program() {
	t := markup.MustCompile(`a href=(url) { "go" } "!"`)
	fmt.Print(t.Program())
	// Output:
	// literal "<a href=\""
	// escaped(attr) url
	// literal "\">go</a>!"
}
