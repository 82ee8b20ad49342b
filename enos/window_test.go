package enos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/enos/enos"
	"github.com/screwyprof/enos/pkg/clock"
)

func TestSelectEpochs(t *testing.T) {
	t.Parallel()

	t.Run("it excludes epochs exactly on either bound", func(t *testing.T) {
		t.Parallel()

		// Arrange
		epochs := []enos.EpochSnapshot{
			epochAt("on-start", 1698807600),
			epochAt("inside", 1699000000),
			epochAt("on-end", 1700000000),
		}

		// Act
		selected := enos.SelectEpochs(epochs, enos.Window{Start: 1698807600, End: 1700000000})

		// Assert
		assert.Equal(t, []enos.EpochSnapshot{epochAt("inside", 1699000000)}, selected)
	})

	t.Run("it truncates nanoseconds instead of rounding", func(t *testing.T) {
		t.Parallel()

		// Arrange
		almostEnd := enos.EpochSnapshot{EpochID: "almost", Timestamp: 1699999999*1e9 + 999_999_999}
		almostStart := enos.EpochSnapshot{EpochID: "start", Timestamp: 1698807600*1e9 + 999_999_999}

		// Act
		selected := enos.SelectEpochs([]enos.EpochSnapshot{almostStart, almostEnd}, enos.Window{Start: 1698807600, End: 1700000000})

		// Assert
		assert.Equal(t, []enos.EpochSnapshot{almostEnd}, selected)
	})

	t.Run("it keeps source order and duplicates", func(t *testing.T) {
		t.Parallel()

		// Arrange
		epochs := []enos.EpochSnapshot{
			epochAt("b", 1699000200),
			epochAt("a", 1699000100),
			epochAt("b", 1699000200),
		}

		// Act
		selected := enos.SelectEpochs(epochs, enos.Window{Start: 1699000000, End: 1699001000})

		// Assert
		assert.Equal(t, epochs, selected)
	})

	t.Run("it returns nothing for an empty window", func(t *testing.T) {
		t.Parallel()

		// Act
		selected := enos.SelectEpochs([]enos.EpochSnapshot{epochAt("a", 1699000000)}, enos.Window{Start: 1699000000, End: 1699000001})

		// Assert
		assert.Empty(t, selected)
	})
}

func TestNewWindow(t *testing.T) {
	t.Parallel()

	t.Run("it ends now when no end is given", func(t *testing.T) {
		t.Parallel()

		// Act
		w := enos.DefaultWindow(clock.FixedAt(1700000000))

		// Assert
		assert.Equal(t, enos.Window{Start: enos.DefaultWindowStart, End: 1700000000}, w)
	})

	t.Run("it keeps an explicit end", func(t *testing.T) {
		t.Parallel()

		// Act
		w := enos.NewWindow(clock.FixedAt(1700000000), 1, 2)

		// Assert
		assert.Equal(t, enos.Window{Start: 1, End: 2}, w)
	})
}

func epochAt(id string, unixSeconds int64) enos.EpochSnapshot {
	return enos.EpochSnapshot{EpochID: id, Timestamp: unixSeconds * 1e9}
}
