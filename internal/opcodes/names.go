package opcodes

// defaultNames is the shipped code map. Several names appear under more
// than one code.
var defaultNames = map[int32]string{
	0:   "Conv_I1",
	1:   "Ldelem_I",
	2:   "Cgt",
	3:   "Mul",
	5:   "Stobj",
	6:   "Ldftn",
	7:   "Conv_I8",
	8:   "Ldloca",
	9:   "Shr",
	11:  "Bgt",
	12:  "Callvirtvirt",
	13:  "Ldarga",
	15:  "Ldobj",
	16:  "Ldobj",
	17:  "Bgt_Un",
	19:  "Conv_Ovf_I4",
	20:  "Shl",
	21:  "Neg",
	22:  "Box",
	23:  "Stelem_Ref",
	24:  "Isinst",
	25:  "Newarr_Prim",
	27:  "Ldelem_I1",
	28:  "Ldc_I8",
	29:  "Conv_U4",
	30:  "Bge_Un",
	33:  "Ble_Un",
	34:  "Ldflda",
	35:  "Conv_U2",
	36:  "Stloc",
	37:  "Conv_I8",
	39:  "Ldstr",
	40:  "Cgt_Un",
	41:  "Stind_I4",
	42:  "Conv_I2",
	43:  "Beq",
	44:  "Stind_R8",
	45:  "Call",
	46:  "Conv_I1",
	47:  "Blt_Un",
	48:  "Stelem_I8",
	49:  "Conv_Ovf_I4_Un",
	51:  "Stind_I1",
	52:  "Ldelem_R4",
	53:  "Unbox",
	55:  "Conv_Ovf_U8",
	56:  "Ldobj",
	57:  "Conv_R4",
	58:  "Conv_R4",
	59:  "Conv_Ovf_U2",
	60:  "Ldsfld",
	61:  "Conv_U1",
	62:  "Starg",
	63:  "Conv_I2",
	64:  "Conv_Ovf_I4",
	65:  "Rethrow",
	66:  "Stelem_I4",
	67:  "Newanon",
	68:  "Conv_R8",
	69:  "Conv_Ovf_I1",
	71:  "Add_Ovf_Un",
	72:  "Ldloc",
	73:  "Calli",
	74:  "Ldelem_I2",
	75:  "Stfld",
	76:  "Not",
	77:  "Ldobj",
	78:  "Conv_U1",
	79:  "Or",
	80:  "Add",
	81:  "Ldobj",
	82:  "Ldelem_Ref",
	83:  "Ldobj",
	84:  "Div",
	85:  "Stsfld",
	86:  "Ldobj",
	87:  "Throw",
	88:  "Castclass",
	89:  "Newarr",
	90:  "Xor",
	91:  "Mul_Ovf_Un",
	93:  "Br",
	94:  "Ldtoken",
	95:  "Ldtype",
	96:  "Stobj",
	97:  "Call",
	98:  "Ldelem_U2",
	99:  "Stind_Ref",
	100: "Ldc_R8",
	101: "Conv_Ovf_I2",
	103: "Ret",
	105: "Ret",
	108: "Conv_Ovf_U2",
	109: "Blt",
	110: "Bne_Un",
	111: "Blt_Un",
	112: "Conv_U4",
	113: "Stelem_I1",
	115: "Stind_I2",
	116: "Blt",
	117: "Initobj",
	119: "Stind_R4",
	120: "Conv_U8",
	121: "Stelem_R8",
	122: "Callvirt",
	123: "Ldelem_I1",
	124: "Stelem_R4",
	125: "Bge",
	126: "Sub",
	127: "Brtrue",
	128: "Pop",
	129: "Stelem_Ref",
	130: "Div_Un",
	131: "Conv_U1",
	132: "Stelem_I8",
	133: "Unbox_Any",
	134: "Brfalse",
	135: "Unbox_Any",
	136: "Add_Ovf",
	137: "Ldobj",
	138: "Calli",
	139: "Ldlen",
	140: "Conv_U4",
	141: "Ldc_I4",
	143: "Ldc_I4",
	144: "Dup",
	145: "Conv_Ovf_U8",
	146: "StackSpace",
	147: "Stelem_I",
	148: "And",
	149: "Switch",
	150: "Conv_U4",
	151: "Newobj",
	153: "Leave",
	155: "Ldobj",
	156: "Ldelem_U4",
	158: "Stind_Ref",
	159: "Ldelem_R8",
	160: "Rem",
	161: "Box",
	162: "Ldvirtftn",
	163: "Conv_Ovf_I1",
	164: "Ldarg",
	165: "Stind",
	166: "Ceq",
	167: "Ldfld",
	168: "Ldobj",
	169: "Shr_Un",
	170: "Ldelem_I4",
	171: "Rem_Un",
	172: "Ldobj",
	173: "Ret",
	174: "Conv_R8",
	175: "Stelem_Ref",
	176: "Ble",
	177: "Rethrow",
	178: "Conv_U8",
	179: "Mul",
}
