package export

import (
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ExportCmd writes a store to stdout or a file
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports a store as json or yaml",
	Long: util.WrapString(`Exports all records of one kind. The json format is identical to the database file;
the yaml format maps every identifier to its record.`),
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "format"
	ExportCmd.Flags().String(key, "json", util.WrapString("Export format (json, yaml)"))
	key = "kind"
	ExportCmd.Flags().String(key, common.KindStudent, util.WrapString("Record kind to export (student, cash)"))
	key = "out"
	ExportCmd.Flags().String(key, "", util.WrapString("File to write to instead of stdout"))
}

func run(cmd *cobra.Command, _ []string) error {
	m, err := util.OpenManager(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out := viper.GetString("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return Export(w, m, viper.GetString("kind"), viper.GetString("format"))
}

// Export writes all records of kind to w
func Export(w io.Writer, m *manager.Manager, kind, format string) error {
	switch format {
	case "json":
		data, err := m.ExportJSON(kind)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, data)
		return err
	case "yaml":
		records, err := byID(m, kind)
		if err != nil {
			return err
		}
		return util.Fprint(w, "yaml", records)
	default:
		return fmt.Errorf("invalid export format %s", format)
	}
}

// byID maps every identifier of kind to its record. yaml sorts the keys.
func byID(m *manager.Manager, kind string) (map[uint64]any, error) {
	out := make(map[uint64]any)
	switch kind {
	case common.KindStudent:
		for _, s := range m.ListStudents() {
			out[s.UID()] = s
		}
	case common.KindCash:
		for _, c := range m.SearchCash(nil) {
			out[c.UID()] = c
		}
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return out, nil
}
