package store

// FileID enumerates the fixed catalogue of files a layer archive may contain.
// The numeric values are the archive's table-of-contents keys and must never
// be reordered.
type FileID uint32

const (
	FileNodeDictionaryBlocks FileID = iota
	FileNodeDictionaryOffsets
	FilePredicateDictionaryBlocks
	FilePredicateDictionaryOffsets
	FileValueDictionaryTypesPresent
	FileValueDictionaryTypeOffsets
	FileValueDictionaryOffsets
	FileValueDictionaryBlocks
	FileNodeValueIdmapBits
	FileNodeValueIdmapBitIndexBlocks
	FileNodeValueIdmapBitIndexSblocks
	FilePredicateIdmapBits
	FilePredicateIdmapBitIndexBlocks
	FilePredicateIdmapBitIndexSblocks
	FileNodeValueRemap
	FileBaseSubjects
	FileBaseObjects
	FileBaseSPAdjacencyListNums
	FileBaseSPAdjacencyListBits
	FileBaseSPAdjacencyListBitIndexBlocks
	FileBaseSPAdjacencyListBitIndexSblocks
	FileBaseSpOAdjacencyListNums
	FileBaseSpOAdjacencyListBits
	FileBaseSpOAdjacencyListBitIndexBlocks
	FileBaseSpOAdjacencyListBitIndexSblocks
	FileBaseOPsAdjacencyListNums
	FileBaseOPsAdjacencyListBits
	FileBaseOPsAdjacencyListBitIndexBlocks
	FileBaseOPsAdjacencyListBitIndexSblocks
	FileBasePredicateWaveletTreeBits
	FileBasePredicateWaveletTreeBitIndexBlocks
	FileBasePredicateWaveletTreeBitIndexSblocks
	FileChildPosSubjects
	FileChildPosObjects
	FileChildNegSubjects
	FileChildNegObjects
	FilePosSPAdjacencyListNums
	FilePosSPAdjacencyListBits
	FilePosSPAdjacencyListBitIndexBlocks
	FilePosSPAdjacencyListBitIndexSblocks
	FilePosSpOAdjacencyListNums
	FilePosSpOAdjacencyListBits
	FilePosSpOAdjacencyListBitIndexBlocks
	FilePosSpOAdjacencyListBitIndexSblocks
	FilePosOPsAdjacencyListNums
	FilePosOPsAdjacencyListBits
	FilePosOPsAdjacencyListBitIndexBlocks
	FilePosOPsAdjacencyListBitIndexSblocks
	FilePosPredicateWaveletTreeBits
	FilePosPredicateWaveletTreeBitIndexBlocks
	FilePosPredicateWaveletTreeBitIndexSblocks
	FileNegSPAdjacencyListNums
	FileNegSPAdjacencyListBits
	FileNegSPAdjacencyListBitIndexBlocks
	FileNegSPAdjacencyListBitIndexSblocks
	FileNegSpOAdjacencyListNums
	FileNegSpOAdjacencyListBits
	FileNegSpOAdjacencyListBitIndexBlocks
	FileNegSpOAdjacencyListBitIndexSblocks
	FileNegOPsAdjacencyListNums
	FileNegOPsAdjacencyListBits
	FileNegOPsAdjacencyListBitIndexBlocks
	FileNegOPsAdjacencyListBitIndexSblocks
	FileNegPredicateWaveletTreeBits
	FileNegPredicateWaveletTreeBitIndexBlocks
	FileNegPredicateWaveletTreeBitIndexSblocks
	FileParent
	FileRollup

	numFileIDs
)

var fileNames = [numFileIDs]string{
	"node_dictionary_blocks.tfc",
	"node_dictionary_offsets.logarray",
	"predicate_dictionary_blocks.tfc",
	"predicate_dictionary_offsets.logarray",
	"value_dictionary_types_present.logarray",
	"value_dictionary_type_offsets.logarray",
	"value_dictionary_offsets.logarray",
	"value_dictionary_blocks.tfc",
	"node_value_idmap_bits.bitarray",
	"node_value_idmap_bit_index_blocks.logarray",
	"node_value_idmap_bit_index_sblocks.logarray",
	"predicate_idmap_bits.bitarray",
	"predicate_idmap_bit_index_blocks.logarray",
	"predicate_idmap_bit_index_sblocks.logarray",
	"node_value_remap.logarray",
	"base_subjects.logarray",
	"base_objects.logarray",
	"base_s_p_adjacency_list_nums.logarray",
	"base_s_p_adjacency_list_bits.bitarray",
	"base_s_p_adjacency_list_bit_index_blocks.logarray",
	"base_s_p_adjacency_list_bit_index_sblocks.logarray",
	"base_sp_o_adjacency_list_nums.logarray",
	"base_sp_o_adjacency_list_bits.bitarray",
	"base_sp_o_adjacency_list_bit_index_blocks.logarray",
	"base_sp_o_adjacency_list_bit_index_sblocks.logarray",
	"base_o_ps_adjacency_list_nums.logarray",
	"base_o_ps_adjacency_list_bits.bitarray",
	"base_o_ps_adjacency_list_bit_index_blocks.logarray",
	"base_o_ps_adjacency_list_bit_index_sblocks.logarray",
	"base_predicate_wavelet_tree_bits.bitarray",
	"base_predicate_wavelet_tree_bit_index_blocks.logarray",
	"base_predicate_wavelet_tree_bit_index_sblocks.logarray",
	"child_pos_subjects.logarray",
	"child_pos_objects.logarray",
	"child_neg_subjects.logarray",
	"child_neg_objects.logarray",
	"pos_s_p_adjacency_list_nums.logarray",
	"pos_s_p_adjacency_list_bits.bitarray",
	"pos_s_p_adjacency_list_bit_index_blocks.logarray",
	"pos_s_p_adjacency_list_bit_index_sblocks.logarray",
	"pos_sp_o_adjacency_list_nums.logarray",
	"pos_sp_o_adjacency_list_bits.bitarray",
	"pos_sp_o_adjacency_list_bit_index_blocks.logarray",
	"pos_sp_o_adjacency_list_bit_index_sblocks.logarray",
	"pos_o_ps_adjacency_list_nums.logarray",
	"pos_o_ps_adjacency_list_bits.bitarray",
	"pos_o_ps_adjacency_list_bit_index_blocks.logarray",
	"pos_o_ps_adjacency_list_bit_index_sblocks.logarray",
	"pos_predicate_wavelet_tree_bits.bitarray",
	"pos_predicate_wavelet_tree_bit_index_blocks.logarray",
	"pos_predicate_wavelet_tree_bit_index_sblocks.logarray",
	"neg_s_p_adjacency_list_nums.logarray",
	"neg_s_p_adjacency_list_bits.bitarray",
	"neg_s_p_adjacency_list_bit_index_blocks.logarray",
	"neg_s_p_adjacency_list_bit_index_sblocks.logarray",
	"neg_sp_o_adjacency_list_nums.logarray",
	"neg_sp_o_adjacency_list_bits.bitarray",
	"neg_sp_o_adjacency_list_bit_index_blocks.logarray",
	"neg_sp_o_adjacency_list_bit_index_sblocks.logarray",
	"neg_o_ps_adjacency_list_nums.logarray",
	"neg_o_ps_adjacency_list_bits.bitarray",
	"neg_o_ps_adjacency_list_bit_index_blocks.logarray",
	"neg_o_ps_adjacency_list_bit_index_sblocks.logarray",
	"neg_predicate_wavelet_tree_bits.bitarray",
	"neg_predicate_wavelet_tree_bit_index_blocks.logarray",
	"neg_predicate_wavelet_tree_bit_index_sblocks.logarray",
	"parent.hex",
	"rollup.hex",
}

// Name returns the layer-internal file name for f.
func (f FileID) Name() string {
	if f < numFileIDs {
		return fileNames[f]
	}
	return "unknown"
}

// Valid reports whether f is in the catalogue.
func (f FileID) Valid() bool { return f < numFileIDs }

// FileIDByName maps layer-internal file names back to their ids.
var FileIDByName = func() map[string]FileID {
	m := make(map[string]FileID, numFileIDs)
	for f := FileID(0); f < numFileIDs; f++ {
		m[fileNames[f]] = f
	}
	return m
}()

// ValueDictFiles lists the four value-dictionary sequences rewritten by the
// dictionary transcoder.
var ValueDictFiles = []FileID{
	FileValueDictionaryTypesPresent,
	FileValueDictionaryTypeOffsets,
	FileValueDictionaryOffsets,
	FileValueDictionaryBlocks,
}

// UnchangedFiles lists every file copied verbatim from the input layer to the
// output layer: the node and predicate dictionaries, the idmaps, the subject
// id lists, the s_p adjacency lists, the sp_o bits and their rank indexes
// (group boundaries survive the remap), the predicate wavelet trees, and the
// parent pointer. The o_ps columns, the sp_o nums, the child objects lists
// and the value dictionary are rebuilt instead; base_objects is neither
// copied nor rebuilt. A file absent from the input is simply not copied.
var UnchangedFiles = []FileID{
	FileNodeDictionaryBlocks,
	FileNodeDictionaryOffsets,
	FilePredicateDictionaryBlocks,
	FilePredicateDictionaryOffsets,
	FileNodeValueIdmapBits,
	FileNodeValueIdmapBitIndexBlocks,
	FileNodeValueIdmapBitIndexSblocks,
	FilePredicateIdmapBits,
	FilePredicateIdmapBitIndexBlocks,
	FilePredicateIdmapBitIndexSblocks,
	FileBaseSubjects,
	FileBaseSPAdjacencyListNums,
	FileBaseSPAdjacencyListBits,
	FileBaseSPAdjacencyListBitIndexBlocks,
	FileBaseSPAdjacencyListBitIndexSblocks,
	FileBaseSpOAdjacencyListBits,
	FileBaseSpOAdjacencyListBitIndexBlocks,
	FileBaseSpOAdjacencyListBitIndexSblocks,
	FileBasePredicateWaveletTreeBits,
	FileBasePredicateWaveletTreeBitIndexBlocks,
	FileBasePredicateWaveletTreeBitIndexSblocks,
	FileChildPosSubjects,
	FileChildNegSubjects,
	FilePosSPAdjacencyListNums,
	FilePosSPAdjacencyListBits,
	FilePosSPAdjacencyListBitIndexBlocks,
	FilePosSPAdjacencyListBitIndexSblocks,
	FilePosSpOAdjacencyListBits,
	FilePosSpOAdjacencyListBitIndexBlocks,
	FilePosSpOAdjacencyListBitIndexSblocks,
	FilePosPredicateWaveletTreeBits,
	FilePosPredicateWaveletTreeBitIndexBlocks,
	FilePosPredicateWaveletTreeBitIndexSblocks,
	FileNegSPAdjacencyListNums,
	FileNegSPAdjacencyListBits,
	FileNegSPAdjacencyListBitIndexBlocks,
	FileNegSPAdjacencyListBitIndexSblocks,
	FileNegSpOAdjacencyListBits,
	FileNegSpOAdjacencyListBitIndexBlocks,
	FileNegSpOAdjacencyListBitIndexSblocks,
	FileNegPredicateWaveletTreeBits,
	FileNegPredicateWaveletTreeBitIndexBlocks,
	FileNegPredicateWaveletTreeBitIndexSblocks,
	FileParent,
}
