package domain

// RawRow - строка входного табличного источника. Отсутствующая колонка
// отличается от пустой: Get возвращает ok=false.
type RawRow interface {
	Get(column string) (string, bool)
}

// MapRow - RawRow поверх map (колонка -> текст)
type MapRow map[string]string

func (r MapRow) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}
