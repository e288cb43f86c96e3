package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	code, err := New().Render("open_chrome")
	require.NoError(t, err)

	want := `from automation import open_chrome

def main():
    try:
        result = open_chrome()
        if result:
            print(result)
        else:
            print("open_chrome executed successfully.")
    except Exception as e:
        print(f"Error executing function: {e}")

if __name__ == "__main__":
    main()
`
	assert.Equal(t, want, code)
}

func TestRender_BindsResolvedName(t *testing.T) {
	code, err := New().Render("list_files")
	require.NoError(t, err)

	assert.Contains(t, code, "from automation import list_files")
	assert.Contains(t, code, "result = list_files()")
	assert.NotContains(t, code, "open_chrome")
}

func TestRender_RejectsInvalidNames(t *testing.T) {
	for _, name := range []string{"", "none; import os", "1abc", "a-b"} {
		_, err := New().Render(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}
