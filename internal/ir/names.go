package ir

// DataFramePackage is the package of the tabular-data API's public types.
const DataFramePackage = "org.jetbrains.kotlinx.dataframe"

// Well-known wrapper classes of the tabular-data API.
var (
	DataFrameClass   = ClassID{Package: DataFramePackage, Name: "DataFrame"}
	DataRowClass     = ClassID{Package: DataFramePackage, Name: "DataRow"}
	DataColumnClass  = ClassID{Package: DataFramePackage, Name: "DataColumn"}
	ColumnGroupClass = ClassID{Package: DataFramePackage + ".columns", Name: "ColumnGroup"}
)

// builtinAliases maps undotted shorthand names to fully-qualified classes.
var builtinAliases = map[string]ClassID{
	"Any":         {Package: "kotlin", Name: "Any"},
	"Boolean":     {Package: "kotlin", Name: "Boolean"},
	"Byte":        {Package: "kotlin", Name: "Byte"},
	"Char":        {Package: "kotlin", Name: "Char"},
	"Double":      {Package: "kotlin", Name: "Double"},
	"Float":       {Package: "kotlin", Name: "Float"},
	"Int":         {Package: "kotlin", Name: "Int"},
	"Long":        {Package: "kotlin", Name: "Long"},
	"Number":      {Package: "kotlin", Name: "Number"},
	"Short":       {Package: "kotlin", Name: "Short"},
	"String":      {Package: "kotlin", Name: "String"},
	"Unit":        {Package: "kotlin", Name: "Unit"},
	"List":        {Package: "kotlin.collections", Name: "List"},
	"Map":         {Package: "kotlin.collections", Name: "Map"},
	"DataFrame":   DataFrameClass,
	"DataRow":     DataRowClass,
	"DataColumn":  DataColumnClass,
	"ColumnGroup": ColumnGroupClass,
}

// DataFrameOf returns DataFrame<marker>.
func DataFrameOf(marker TypeRef) TypeRef {
	return ClassType(DataFrameClass, marker)
}

// DataRowOf returns DataRow<marker>.
func DataRowOf(marker TypeRef) TypeRef {
	return ClassType(DataRowClass, marker)
}

// DataColumnOf returns DataColumn<element>.
func DataColumnOf(element TypeRef) TypeRef {
	return ClassType(DataColumnClass, element)
}

// ColumnGroupOf returns ColumnGroup<marker>.
func ColumnGroupOf(marker TypeRef) TypeRef {
	return ClassType(ColumnGroupClass, marker)
}
