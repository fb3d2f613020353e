package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/internal/cockpit"
	"github.com/zheng/rkhl/internal/display"
)

func cockpitCmd() *cobra.Command {
	var region string
	var tab string
	var format string

	cmd := &cobra.Command{
		Use:   "cockpit",
		Short: "查看数据驾驶舱指标",
		Long: `输出数据驾驶舱的统计指标，默认为全市数据。

示例：
  rkhl cockpit                              # 全市辖区概况
  rkhl cockpit --region 奎文区 --tab floating  # 奎文区流动人口`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			if !cockpit.Valid(region) {
				return fmt.Errorf("未知的区域 %q (可选: %s 或 %v)", region, cockpit.CityWide, cockpit.Names())
			}
			t, ok := cockpit.ParseTab(tab)
			if !ok {
				return fmt.Errorf("未知的驾驶舱 %q (可选: overview/registered/floating)", tab)
			}

			data := cockpit.RegionData(region)
			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, data)
			}

			for _, info := range cockpit.Tabs {
				if info.ID == t {
					fmt.Fprintf(out, "%s · %s\n\n", display.Brand.Sprint(info.Label), region)
				}
			}
			switch t {
			case cockpit.TabOverview:
				writeOverview(out, data.Overview)
			case cockpit.TabRegistered:
				writeRegistered(out, data.Registered)
			case cockpit.TabFloating:
				writeFloating(out, data.Floating)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", cockpit.CityWide, "区域名称")
	cmd.Flags().StringVarP(&tab, "tab", "t", string(cockpit.TabOverview), "驾驶舱 (overview/registered/floating)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}

func writeNamed(out io.Writer, title string, values []cockpit.NamedValue) {
	fmt.Fprintf(out, "\n%s\n", display.Info.Sprint(title))
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v.Name, strconv.Itoa(v.Value)}
	}
	display.Table(out, []string{"项目", "数值"}, rows)
}

func writeOverview(out io.Writer, o cockpit.Overview) {
	fmt.Fprintf(out, "派出所 %d  民警 %d  辅警 %d  社区民警 %d (占比 %.1f%%)\n",
		o.Stations, o.Police, o.Auxiliary, o.CommunityPolice, o.CommunityRatio())
	writeNamed(out, "警力结构", o.ForceStructure)
	writeNamed(out, "民警年龄", o.PoliceAge)
	writeNamed(out, "民警性别", o.PoliceGender)
	writeNamed(out, "辅警年龄", o.AuxAge)
	writeNamed(out, "辅警性别", o.AuxGender)
}

func writeRegistered(out io.Writer, r cockpit.Registered) {
	fmt.Fprintf(out, "户籍人口 %d  增长率 %s\n", r.Total, r.GrowthRate)
	fmt.Fprintf(out, "四项变动: 出生 %d  死亡 %d  迁入 %d  迁出 %d\n",
		r.FourChanges.Birth, r.FourChanges.Death, r.FourChanges.MoveIn, r.FourChanges.MoveOut)
	writeNamed(out, "性别分布", r.GenderData)
	writeNamed(out, "年龄分布", r.AgeDist)
	writeNamed(out, "人口趋势", r.Trend)
}

func writeFloating(out io.Writer, f cockpit.Floating) {
	fmt.Fprintf(out, "流动人口 %d  人户分离 %d  居住证办理率 %s (%d 张)\n",
		f.Total, f.Separation, f.PermitRate, f.PermitCount)
	writeNamed(out, "来源地分布", f.SourceData)
	writeNamed(out, "流入趋势", f.Trend)
	writeNamed(out, "年龄分布", f.AgeDist)
	writeNamed(out, "性别分布", f.GenderData)
}

func mapCmd() *cobra.Command {
	var at []float64
	var format string

	cmd := &cobra.Command{
		Use:   "map",
		Short: "查看驾驶舱地图区域",
		Long: `列出地图上的十二个区县，或用 --at 检测某个坐标落在哪个区县。

示例：
  rkhl map
  rkhl map --at 265,170`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(at) > 0 {
				if len(at) != 2 {
					return fmt.Errorf("--at 需要两个坐标值 x,y")
				}
				name, ok := cockpit.RegionAt(at[0], at[1])
				if format == "json" {
					return outputJSON(out, map[string]any{"hit": ok, "region": name})
				}
				if !ok {
					fmt.Fprintln(out, "未命中任何区县")
					return nil
				}
				fmt.Fprintln(out, name)
				return nil
			}

			regions := cockpit.Regions()
			if format == "json" {
				return outputJSON(out, regions)
			}
			fmt.Fprintf(out, "视图 %dx%d\n\n", cockpit.ViewWidth, cockpit.ViewHeight)
			rows := make([][]string, len(regions))
			for i, r := range regions {
				rows[i] = []string{r.Name, r.Label, fmt.Sprintf("(%g, %g)", r.Anchor.X, r.Anchor.Y), r.Color}
			}
			display.Table(out, []string{"区县", "简称", "锚点", "颜色"}, rows)
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&at, "at", nil, "检测坐标 x,y")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}
