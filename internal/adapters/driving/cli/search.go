package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

var (
	searchCase          string
	searchHasTaxCode    bool
	searchHasDOB        bool
	searchHasAddress    bool
	searchHasTitle      bool
	searchMinConfidence float64
	searchSort          string
	searchLimit         int
	searchOffset        int
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search extracted persons",
	Long: `Lists the persons in the index. The optional query matches, ignoring case,
part of a name, tax code, address, city, email or phone number.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchCase, "case", "c", "", "restrict to one case")
	f.BoolVar(&searchHasTaxCode, "has-cf", false, "only persons with a tax code")
	f.BoolVar(&searchHasDOB, "has-dob", false, "only persons with a date of birth")
	f.BoolVar(&searchHasAddress, "has-address", false, "only persons with an address")
	f.BoolVar(&searchHasTitle, "has-title", false, "only persons with a title")
	f.Float64Var(&searchMinConfidence, "min-confidence", 0, "minimum confidence, 0 to 1")
	f.StringVar(&searchSort, "sort", string(domain.SortByName), "order: name, confidence or occurrences")
	f.IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	f.IntVar(&searchOffset, "offset", 0, "results to skip")
	f.BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	sort := domain.PersonSort(searchSort)
	if !sort.IsValid() {
		return fmt.Errorf("unknown sort %q: %w", searchSort, domain.ErrInvalidInput)
	}

	entities, err := app.Entities()
	if err != nil {
		return err
	}

	filters := domain.PersonSearchFilters{
		CaseID:        searchCase,
		HasTaxCode:    searchHasTaxCode,
		HasDOB:        searchHasDOB,
		HasAddress:    searchHasAddress,
		HasTitle:      searchHasTitle,
		MinConfidence: searchMinConfidence,
		Sort:          sort,
		Limit:         searchLimit,
		Offset:        searchOffset,
	}
	if len(args) == 1 {
		filters.Query = args[0]
	}

	persons, err := entities.SearchPersons(cmd.Context(), filters)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd.OutOrStdout(), persons)
	}
	p := newPrinter(cmd.OutOrStdout())
	if len(persons) == 0 {
		p.muted("No persons found.")
		return nil
	}
	p.persons(persons)
	return nil
}
